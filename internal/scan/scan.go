// Package scan extracts template-consuming call sites from C# source text.
//
// The scanner is deliberately tolerant: it does not parse C#, it walks the
// byte stream skipping comments and string literals, and picks out
// `receiver.Method(args)` invocations whose method name is registered. It is
// a heuristic front end; the analysis core behind it only ever sees the
// extracted arguments.
package scan

import (
	"strings"

	"mtlint/internal/callsite"
	"mtlint/internal/source"
)

// Options configures call extraction.
type Options struct {
	// IsMethod reports whether a method name is template-consuming.
	IsMethod func(name string) bool
	// ExceptionIdents are identifier names assumed exception-typed, compared
	// case-insensitively against the final segment of an identifier chain.
	ExceptionIdents map[string]bool
	// StaticClasses are receiver names treated as static invocations, where
	// the first argument is the logger itself. Compared against the final
	// segment of the receiver chain.
	StaticClasses map[string]bool
}

// DefaultExceptionIdents covers the conventional catch-variable names.
func DefaultExceptionIdents() map[string]bool {
	return map[string]bool{"e": true, "ex": true, "exc": true, "exception": true}
}

// File extracts the template-consuming calls from one source file.
func File(f *source.File, opts Options) []callsite.Call {
	if opts.ExceptionIdents == nil {
		opts.ExceptionIdents = DefaultExceptionIdents()
	}
	s := scanner{src: f.Content, file: f.ID, opts: opts}
	return s.run()
}

type scanner struct {
	src   []byte
	pos   int
	file  source.FileID
	opts  Options
	calls []callsite.Call
}

func (s *scanner) run() []callsite.Call {
	for s.pos < len(s.src) {
		if next := s.skipNonCode(); next >= 0 {
			s.pos = next
			continue
		}
		c := s.src[s.pos]
		if !isIdentStart(c) {
			s.pos++
			continue
		}
		nameStart := s.pos
		for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
			s.pos++
		}
		name := string(s.src[nameStart:s.pos])
		if s.opts.IsMethod == nil || !s.opts.IsMethod(name) {
			continue
		}
		open := s.peekPastSpaces(s.pos)
		if open >= len(s.src) || s.src[open] != '(' {
			continue
		}
		// Require an explicit receiver so declarations and unrelated local
		// calls with a matching name are not picked up.
		recvStart, ok := s.receiverStart(nameStart)
		if !ok {
			continue
		}
		static := s.isStaticReceiver(recvStart, nameStart)
		s.pos = open
		args, end := s.scanArgs()
		if end < 0 {
			return s.calls
		}
		s.calls = append(s.calls, callsite.Call{
			Method: name,
			Span:   s.span(recvStart, end),
			Args:   s.classifyArgs(args),
			Static: static,
		})
	}
	return s.calls
}

// skipNonCode consumes a comment or string starting at pos, returning the
// position after it, or -1 when pos is plain code.
func (s *scanner) skipNonCode() int {
	c := s.src[s.pos]
	switch {
	case c == '/' && s.byteAt(s.pos+1) == '/':
		i := s.pos + 2
		for i < len(s.src) && s.src[i] != '\n' {
			i++
		}
		return i
	case c == '/' && s.byteAt(s.pos+1) == '*':
		i := s.pos + 2
		for i < len(s.src) {
			if s.src[i] == '*' && s.byteAt(i+1) == '/' {
				return i + 2
			}
			i++
		}
		return i
	case c == '"':
		return s.skipRegularString(s.pos + 1)
	case c == '@' && s.byteAt(s.pos+1) == '"':
		return s.skipVerbatimString(s.pos + 2)
	case c == '$' && s.byteAt(s.pos+1) == '"':
		return s.skipInterpolatedString(s.pos+2, false)
	case c == '$' && s.byteAt(s.pos+1) == '@' && s.byteAt(s.pos+2) == '"',
		c == '@' && s.byteAt(s.pos+1) == '$' && s.byteAt(s.pos+2) == '"':
		return s.skipInterpolatedString(s.pos+3, true)
	case c == '\'':
		i := s.pos + 1
		for i < len(s.src) {
			if s.src[i] == '\\' {
				i += 2
				continue
			}
			if s.src[i] == '\'' {
				return i + 1
			}
			i++
		}
		return i
	}
	return -1
}

func (s *scanner) skipRegularString(i int) int {
	for i < len(s.src) {
		switch s.src[i] {
		case '\\':
			i += 2
		case '"', '\n':
			return i + 1
		default:
			i++
		}
	}
	return i
}

func (s *scanner) skipVerbatimString(i int) int {
	for i < len(s.src) {
		if s.src[i] == '"' {
			if s.byteAt(i+1) == '"' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

func (s *scanner) skipInterpolatedString(i int, verbatim bool) int {
	for i < len(s.src) {
		c := s.src[i]
		switch {
		case c == '"' && verbatim && s.byteAt(i+1) == '"':
			i += 2
		case c == '"':
			return i + 1
		case c == '\\' && !verbatim:
			i += 2
		case c == '{' && s.byteAt(i+1) == '{':
			i += 2
		case c == '{':
			i = s.skipInterpolationHole(i + 1)
		case c == '}' && s.byteAt(i+1) == '}':
			i += 2
		default:
			i++
		}
	}
	return i
}

// skipInterpolationHole walks an interpolation expression, which may itself
// contain strings, comments, and nested braces.
func (s *scanner) skipInterpolationHole(i int) int {
	depth := 1
	saved := s.pos
	for i < len(s.src) && depth > 0 {
		s.pos = i
		if next := s.skipNonCode(); next >= 0 {
			i = next
			continue
		}
		switch s.src[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
		i++
	}
	s.pos = saved
	return i
}

// receiverStart walks backwards from the method name over a `recv.`
// qualifier. The receiver may be a dotted identifier chain or end in a
// closing paren or bracket (a fluent call or indexer).
func (s *scanner) receiverStart(nameStart int) (int, bool) {
	i := nameStart - 1
	for i >= 0 && isSpace(s.src[i]) {
		i--
	}
	if i < 0 || s.src[i] != '.' {
		return 0, false
	}
	i--
	for i >= 0 && isSpace(s.src[i]) {
		i--
	}
	if i < 0 {
		return 0, false
	}
	if s.src[i] == ')' || s.src[i] == ']' {
		// Fluent receiver; anchor the call at the method name itself.
		return nameStart, true
	}
	end := i
	for i >= 0 && (isIdentPart(s.src[i]) || s.src[i] == '.') {
		i--
	}
	if i == end {
		return 0, false
	}
	return i + 1, true
}

// isStaticReceiver reports whether the receiver chain names a configured
// static-invocation class.
func (s *scanner) isStaticReceiver(recvStart, nameStart int) bool {
	if len(s.opts.StaticClasses) == 0 || recvStart >= nameStart {
		return false
	}
	recv := strings.TrimSpace(string(s.src[recvStart:nameStart]))
	recv = strings.TrimSuffix(strings.TrimSpace(recv), ".")
	recv = strings.TrimSpace(recv)
	if i := strings.LastIndexByte(recv, '.'); i >= 0 {
		recv = recv[i+1:]
	}
	return s.opts.StaticClasses[recv]
}

type rawArg struct {
	start, end int
}

// scanArgs consumes a balanced argument list starting at the opening paren
// and returns the top-level argument ranges plus the position after the
// closing paren, or -1 at EOF.
func (s *scanner) scanArgs() ([]rawArg, int) {
	depth := 0
	var args []rawArg
	argStart := s.pos + 1
	sawAny := false
	for s.pos < len(s.src) {
		if next := s.skipNonCode(); next >= 0 {
			s.pos = next
			sawAny = true
			continue
		}
		switch s.src[s.pos] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				if sawAny || s.pos > argStart {
					args = append(args, rawArg{argStart, s.pos})
				}
				s.pos++
				return args, s.pos
			}
		case ',':
			if depth == 1 {
				args = append(args, rawArg{argStart, s.pos})
				argStart = s.pos + 1
			}
		default:
			if !isSpace(s.src[s.pos]) {
				sawAny = true
			}
		}
		s.pos++
	}
	return nil, -1
}

func (s *scanner) classifyArgs(raws []rawArg) []callsite.Arg {
	args := make([]callsite.Arg, 0, len(raws))
	for _, ra := range raws {
		start, end := ra.start, ra.end
		for start < end && isSpace(s.src[start]) {
			start++
		}
		for end > start && isSpace(s.src[end-1]) {
			end--
		}
		args = append(args, s.classify(start, end))
	}
	return args
}

func (s *scanner) classify(start, end int) callsite.Arg {
	text := string(s.src[start:end])
	arg := callsite.Arg{Text: text, Span: s.span(start, end)}

	switch {
	case strings.HasPrefix(text, `"`):
		if n := regularLiteralLen(text); n == len(text) {
			arg.IsStringLiteral = true
			arg.Raw = text
		}
	case strings.HasPrefix(text, `@"`):
		if n := verbatimLiteralLen(text); n == len(text) {
			arg.IsStringLiteral = true
			arg.Verbatim = true
			arg.Raw = text
		}
	case text == "String.Empty" || text == "string.Empty":
		arg.IsConstantEmpty = true
	}

	arg.IsException = s.looksLikeException(text)
	return arg
}

// looksLikeException guesses whether an argument expression is
// exception-typed: a `new SomethingException(...)` construction, or an
// identifier chain whose final segment is a known catch-variable name or
// ends in "Exception".
func (s *scanner) looksLikeException(text string) bool {
	if rest, ok := strings.CutPrefix(text, "new "); ok {
		typeName := rest
		if i := strings.IndexAny(rest, "(<"); i >= 0 {
			typeName = rest[:i]
		}
		typeName = strings.TrimSpace(typeName)
		if i := strings.LastIndexByte(typeName, '.'); i >= 0 {
			typeName = typeName[i+1:]
		}
		return strings.HasSuffix(typeName, "Exception")
	}
	if !isIdentChain(text) {
		return false
	}
	last := text
	if i := strings.LastIndexByte(text, '.'); i >= 0 {
		last = text[i+1:]
	}
	return s.opts.ExceptionIdents[strings.ToLower(last)] || strings.HasSuffix(last, "Exception")
}

func (s *scanner) span(start, end int) source.Span {
	return source.Span{File: s.file, Start: uint32(start), End: uint32(end)}
}

func (s *scanner) byteAt(i int) byte {
	if i < len(s.src) {
		return s.src[i]
	}
	return 0
}

func (s *scanner) peekPastSpaces(i int) int {
	for i < len(s.src) && isSpace(s.src[i]) {
		i++
	}
	return i
}

// regularLiteralLen returns the byte length of the regular string literal at
// the start of text, or -1 when the literal is unterminated.
func regularLiteralLen(text string) int {
	i := 1
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return -1
}

// verbatimLiteralLen is the verbatim counterpart; doubled quotes stay inside
// the literal.
func verbatimLiteralLen(text string) int {
	i := 2
	for i < len(text) {
		if text[i] == '"' {
			if i+1 < len(text) && text[i+1] == '"' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return -1
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func isIdentChain(text string) bool {
	if text == "" {
		return false
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !isIdentPart(c) && c != '.' {
			return false
		}
	}
	return isIdentStart(text[0])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
