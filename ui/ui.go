// Package ui carries the embedded web assets.
package ui

import "embed"

//go:embed html
var HTMLFiles embed.FS

//go:embed static
var StaticFiles embed.FS
