package msgtemplate

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// ParseError describes the first structural fault found in a template.
// Offsets are into the decoded template string.
type ParseError struct {
	Message string
	Start   int
	Length  int
}

func (e *ParseError) Error() string { return e.Message }

// Parse splits a decoded template string into text and property segments.
// Parsing is fail-fast: the result is either a complete segment sequence or
// exactly one error, never both.
func Parse(value string) ([]Segment, *ParseError) {
	p := parser{src: value}
	return p.run()
}

type parser struct {
	src      string
	pos      int
	segments []Segment

	// current text run, flushed when a property begins or input ends
	textStart int
	text      []byte
}

func (p *parser) run() ([]Segment, *ParseError) {
	p.textStart = 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '{' && p.peek(1) == '{':
			p.text = append(p.text, '{')
			p.pos += 2
		case c == '}' && p.peek(1) == '}':
			p.text = append(p.text, '}')
			p.pos += 2
		case c == '{':
			p.flushText()
			if err := p.parseProperty(); err != nil {
				return nil, err
			}
			p.textStart = p.pos
		default:
			p.text = append(p.text, c)
			p.pos++
		}
	}
	p.flushText()
	return p.segments, nil
}

func (p *parser) peek(ahead int) byte {
	if p.pos+ahead < len(p.src) {
		return p.src[p.pos+ahead]
	}
	return 0
}

func (p *parser) flushText() {
	if len(p.text) == 0 {
		return
	}
	p.segments = append(p.segments, Text{
		Value:  string(p.text),
		Start:  p.textStart,
		Length: p.pos - p.textStart,
	})
	p.text = p.text[:0]
}

// parseProperty consumes one {...} hole starting at the opening brace.
func (p *parser) parseProperty() *ParseError {
	open := p.pos
	p.pos++ // '{'

	prop := Property{Start: open}

	switch p.byteAt(p.pos) {
	case '@':
		prop.Destructuring = Destructure
		p.pos++
	case '$':
		prop.Destructuring = Stringify
		p.pos++
	}

	nameStart := p.pos
	for p.pos < len(p.src) && isNameChar(p.src[p.pos]) {
		p.pos++
	}
	prop.Name = p.src[nameStart:p.pos]

	if p.pos >= len(p.src) {
		return p.errEndOfTemplate(open)
	}

	c := p.src[p.pos]
	if c != '}' && c != ',' && c != ':' {
		msg := "Found invalid character '%c' in property"
		if prop.Destructuring != DestructureNone {
			msg = "Found invalid character '%c' in property name"
		}
		return p.errAtChar(msg)
	}

	if prop.Name == "" {
		// Span covers the delimiters consumed so far, closing brace included.
		length := p.pos - open
		if c == '}' {
			length++
		}
		msg := "Found property without name"
		if prop.Destructuring != DestructureNone {
			msg = "Found property with destructuring hint but without name"
		}
		return &ParseError{Message: msg, Start: open, Length: length}
	}

	if index, ok := positionalIndex(prop.Name); ok {
		prop.Kind = Positional
		prop.Index = index
	}

	if c == ',' {
		align, err := p.parseAlignment(open)
		if err != nil {
			return err
		}
		prop.Alignment = align
		c = p.src[p.pos]
	}

	if c == ':' {
		format, err := p.parseFormat(open)
		if err != nil {
			return err
		}
		prop.Format = format
		prop.HasFormat = true
	}

	// Only '}' can be at p.pos now.
	p.pos++
	prop.Length = p.pos - open
	p.segments = append(p.segments, prop)
	return nil
}

func (p *parser) parseAlignment(open int) (*Alignment, *ParseError) {
	p.pos++ // ','

	left := false
	if p.byteAt(p.pos) == '-' {
		left = true
		p.pos++
	}

	digitsStart := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}

	if p.pos >= len(p.src) {
		return nil, p.errEndOfTemplate(open)
	}
	if c := p.src[p.pos]; c != '}' && c != ':' {
		if c == '-' {
			return nil, &ParseError{
				Message: "'-' character must be the first in alignment",
				Start:   p.pos,
				Length:  1,
			}
		}
		return nil, p.errAtChar("Found invalid character '%c' in property alignment")
	}
	if p.pos == digitsStart {
		return nil, &ParseError{
			Message: "Found alignment specifier without alignment",
			Start:   p.pos,
			Length:  1,
		}
	}

	value, err := strconv.Atoi(p.src[digitsStart:p.pos])
	if err != nil || value == 0 {
		return nil, &ParseError{
			Message: "Found zero size alignment",
			Start:   digitsStart,
			Length:  p.pos - digitsStart,
		}
	}
	return &Alignment{Value: value, IsLeft: left}, nil
}

func (p *parser) parseFormat(open int) (string, *ParseError) {
	p.pos++ // ':'
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '}' {
			return p.src[start:p.pos], nil
		}
		if c < 0x20 || c == 0x7f {
			return "", p.errAtChar("Found invalid character '%c' in property format")
		}
		p.pos++
	}
	return "", p.errEndOfTemplate(open)
}

func (p *parser) errEndOfTemplate(open int) *ParseError {
	return &ParseError{
		Message: "Encountered end of messageTemplate while parsing property",
		Start:   open,
		Length:  len(p.src) - open,
	}
}

func (p *parser) errAtChar(format string) *ParseError {
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return &ParseError{
		Message: fmt.Sprintf(format, r),
		Start:   p.pos,
		Length:  1,
	}
}

func (p *parser) byteAt(i int) byte {
	if i < len(p.src) {
		return p.src[i]
	}
	return 0
}

func isNameChar(c byte) bool {
	return c == '_' ||
		c >= '0' && c <= '9' ||
		c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// positionalIndex reports whether name is a pure digit run, in which case the
// hole is addressed by position rather than by name.
func positionalIndex(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for i := 0; i < len(name); i++ {
		if !isDigit(name[i]) {
			return 0, false
		}
	}
	index, err := strconv.Atoi(name)
	if err != nil {
		// Digit run too long for int; treat as named.
		return 0, false
	}
	return index, true
}
