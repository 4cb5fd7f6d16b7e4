package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sschoell/pismprof/internal/models"
)

// PISM (via PETSc's -profile/-log_view machinery) writes profiling data as an
// importable Python module: a flat sequence of `name = <literal>` assignments
// where the literals are nested dicts, lists, strings and numbers. The file is
// never executed; this is a scanner and recursive-descent parser for exactly
// that literal subset. Anything executable is a parse error.

type pyToken struct {
	kind pyTokenKind
	text string
	line int
}

type pyTokenKind int

const (
	pyEOF pyTokenKind = iota
	pyIdent
	pyString
	pyNumber
	pyPunct // one of = { } [ ] ( ) , :
)

type pyScanner struct {
	src  string
	pos  int
	line int
}

func newPyScanner(src string) *pyScanner {
	return &pyScanner{src: src, line: 1}
}

func (s *pyScanner) errf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", s.line, fmt.Sprintf(format, args...))
}

// next returns the next token, skipping whitespace, comments and line
// continuations.
func (s *pyScanner) next() (pyToken, error) {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\n':
			s.line++
			s.pos++
		case c == ' ' || c == '\t' || c == '\r':
			s.pos++
		case c == '#':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
		case c == '\\' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '\n':
			s.line++
			s.pos += 2
		case c == '\\' && s.pos+2 < len(s.src) && s.src[s.pos+1] == '\r' && s.src[s.pos+2] == '\n':
			s.line++
			s.pos += 3
		default:
			goto scan
		}
	}
	return pyToken{kind: pyEOF, line: s.line}, nil

scan:
	start := s.pos
	c := s.src[s.pos]

	switch {
	case strings.IndexByte("={}[](),:", c) >= 0:
		s.pos++
		return pyToken{kind: pyPunct, text: string(c), line: s.line}, nil

	case c == '\'' || c == '"':
		quote := c
		s.pos++
		var sb strings.Builder
		for s.pos < len(s.src) {
			ch := s.src[s.pos]
			if ch == '\n' {
				return pyToken{}, s.errf("unterminated string")
			}
			if ch == '\\' && s.pos+1 < len(s.src) {
				s.pos++
				switch esc := s.src[s.pos]; esc {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case '\\', '\'', '"':
					sb.WriteByte(esc)
				default:
					sb.WriteByte('\\')
					sb.WriteByte(esc)
				}
				s.pos++
				continue
			}
			if ch == quote {
				s.pos++
				return pyToken{kind: pyString, text: sb.String(), line: s.line}, nil
			}
			sb.WriteByte(ch)
			s.pos++
		}
		return pyToken{}, s.errf("unterminated string")

	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		s.pos++
		for s.pos < len(s.src) {
			ch := s.src[s.pos]
			if (ch >= '0' && ch <= '9') || ch == '.' || ch == 'e' || ch == 'E' ||
				((ch == '+' || ch == '-') && (s.src[s.pos-1] == 'e' || s.src[s.pos-1] == 'E')) {
				s.pos++
				continue
			}
			break
		}
		return pyToken{kind: pyNumber, text: s.src[start:s.pos], line: s.line}, nil

	default:
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !unicode.IsLetter(r) && r != '_' {
			return pyToken{}, s.errf("unexpected character %q", r)
		}
		s.pos += size
		for s.pos < len(s.src) {
			r, size = utf8.DecodeRuneInString(s.src[s.pos:])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			s.pos += size
		}
		return pyToken{kind: pyIdent, text: s.src[start:s.pos], line: s.line}, nil
	}
}

type pyParser struct {
	scan *pyScanner
	tok  pyToken
}

func (p *pyParser) advance() error {
	tok, err := p.scan.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *pyParser) expectPunct(text string) error {
	if p.tok.kind != pyPunct || p.tok.text != text {
		return fmt.Errorf("line %d: expected %q, got %q", p.tok.line, text, p.tok.text)
	}
	return p.advance()
}

// value parses one literal. Dicts become map[string]any, lists and tuples
// []any, numbers float64.
func (p *pyParser) value() (any, error) {
	switch p.tok.kind {
	case pyString:
		v := p.tok.text
		return v, p.advance()

	case pyNumber:
		f, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad number %q", p.tok.line, p.tok.text)
		}
		return f, p.advance()

	case pyIdent:
		switch p.tok.text {
		case "True":
			return true, p.advance()
		case "False":
			return false, p.advance()
		case "None":
			return nil, p.advance()
		case "nan":
			return math.NaN(), p.advance()
		case "inf":
			return math.Inf(1), p.advance()
		}
		return nil, fmt.Errorf("line %d: %q is not a literal", p.tok.line, p.tok.text)

	case pyPunct:
		switch p.tok.text {
		case "{":
			return p.dict()
		case "[":
			return p.sequence("]")
		case "(":
			return p.sequence(")")
		}
	}
	return nil, fmt.Errorf("line %d: unexpected token %q", p.tok.line, p.tok.text)
}

func (p *pyParser) dict() (map[string]any, error) {
	if err := p.advance(); err != nil { // consume {
		return nil, err
	}
	out := make(map[string]any)
	for {
		if p.tok.kind == pyPunct && p.tok.text == "}" {
			return out, p.advance()
		}
		if p.tok.kind != pyString {
			return nil, fmt.Errorf("line %d: dict keys must be strings", p.tok.line)
		}
		key := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[key] = v
		if p.tok.kind == pyPunct && p.tok.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
}

func (p *pyParser) sequence(closing string) ([]any, error) {
	if err := p.advance(); err != nil { // consume opening bracket
		return nil, err
	}
	var out []any
	for {
		if p.tok.kind == pyPunct && p.tok.text == closing {
			return out, p.advance()
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if p.tok.kind == pyPunct && p.tok.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
}

// decodePyModule parses the assignments in a Python profiling module and
// extracts numProcs and Stages. Other top-level assignments (PETSc writes a
// handful, e.g. LocalTimes) are parsed and dropped.
func decodePyModule(raw []byte) (*models.ProfileData, error) {
	p := &pyParser{scan: newPyScanner(string(raw))}
	if err := p.advance(); err != nil {
		return nil, err
	}

	assignments := make(map[string]any)
	for p.tok.kind != pyEOF {
		if p.tok.kind != pyIdent {
			return nil, fmt.Errorf("line %d: expected assignment, got %q", p.tok.line, p.tok.text)
		}
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		assignments[name] = v
	}

	return profileFromAssignments(assignments)
}

func profileFromAssignments(assignments map[string]any) (*models.ProfileData, error) {
	rawProcs, ok := assignments["numProcs"]
	if !ok {
		return nil, fmt.Errorf("missing numProcs")
	}
	procs, ok := rawProcs.(float64)
	if !ok || procs != math.Trunc(procs) {
		return nil, fmt.Errorf("numProcs must be an integer, got %v", rawProcs)
	}

	rawStages, ok := assignments["Stages"]
	if !ok {
		return nil, fmt.Errorf("missing Stages")
	}
	stages, ok := rawStages.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("Stages must be a dict")
	}

	data := &models.ProfileData{
		NumProcs: int(procs),
		Stages:   make(map[string]models.Stage, len(stages)),
	}
	for stageName, rawEvents := range stages {
		events, ok := rawEvents.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("stage %q must be a dict", stageName)
		}
		stage := make(models.Stage, len(events))
		for eventName, rawSamples := range events {
			seq, ok := rawSamples.([]any)
			if !ok {
				return nil, fmt.Errorf("stage %q event %q must be a list", stageName, eventName)
			}
			samples := make([]models.Sample, 0, len(seq))
			for i, rawRec := range seq {
				rec, ok := rawRec.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("stage %q event %q sample %d must be a dict", stageName, eventName, i)
				}
				t, ok := rec["time"].(float64)
				if !ok {
					return nil, fmt.Errorf("stage %q event %q sample %d has no time field", stageName, eventName, i)
				}
				samples = append(samples, models.Sample{Time: t})
			}
			stage[eventName] = samples
		}
		data.Stages[stageName] = stage
	}
	return data, nil
}
