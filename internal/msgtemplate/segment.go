package msgtemplate

// Segment is one piece of a parsed message template: either a run of literal
// text or a property hole. The sum is closed; consumers switch exhaustively
// over the two variants.
type Segment interface {
	segment()
	// Bounds returns the segment's start offset and length in the decoded
	// template string.
	Bounds() (start, length int)
}

// Text is a run of literal template text. Doubled braces in the template
// ({{ and }}) are already collapsed into single characters.
type Text struct {
	Value  string
	Start  int
	Length int
}

func (Text) segment() {}

func (t Text) Bounds() (int, int) { return t.Start, t.Length }

// PropertyKind distinguishes named holes from positional ones.
type PropertyKind uint8

const (
	Named PropertyKind = iota
	Positional
)

func (k PropertyKind) String() string {
	if k == Positional {
		return "positional"
	}
	return "named"
}

// Destructuring is the optional capture hint before a property name.
type Destructuring uint8

const (
	DestructureNone Destructuring = iota
	// Destructure captures the argument's object graph ('@').
	Destructure
	// Stringify forces string conversion ('$').
	Stringify
)

// Alignment is the optional width directive after a property name.
type Alignment struct {
	Value  int
	IsLeft bool
}

// Property is a parsed {...} hole.
type Property struct {
	Name          string
	Kind          PropertyKind
	Index         int // set iff Kind == Positional
	Destructuring Destructuring
	Alignment     *Alignment
	Format        string
	HasFormat     bool
	Start         int
	Length        int
}

func (Property) segment() {}

func (p Property) Bounds() (int, int) { return p.Start, p.Length }

// NameStart returns the decoded offset of the first character of the name.
func (p Property) NameStart() int {
	start := p.Start + 1 // past '{'
	if p.Destructuring != DestructureNone {
		start++
	}
	return start
}

// Properties filters the property segments out of a parsed sequence.
func Properties(segments []Segment) []Property {
	out := make([]Property, 0, len(segments))
	for _, seg := range segments {
		if p, ok := seg.(Property); ok {
			out = append(out, p)
		}
	}
	return out
}
