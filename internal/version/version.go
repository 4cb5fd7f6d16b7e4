package version

// Current is the version of the binary, set at build time via ldflags.
var Current = "dev"
