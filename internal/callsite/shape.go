package callsite

import (
	"fmt"
	"sort"
	"strings"
)

// Role classifies one parameter slot of a template-consuming method.
type Role uint8

const (
	// RoleReceiver is an explicit logger argument in static-invocation shape.
	RoleReceiver Role = iota
	// RoleException is a dedicated leading exception parameter.
	RoleException
	// RoleTemplate is the message template parameter.
	RoleTemplate
	// RoleValues is the trailing value-argument rest. Must be last in a shape.
	RoleValues
)

func (r Role) String() string {
	switch r {
	case RoleReceiver:
		return "receiver"
	case RoleException:
		return "exception"
	case RoleTemplate:
		return "template"
	case RoleValues:
		return "values"
	}
	return "unknown"
}

// Shape is an ordered parameter layout, e.g. exception-template-values.
type Shape []Role

// ParseShape decodes a compact shape spec: one letter per slot, R(eceiver),
// E(xception), T(emplate), V(alues). V is only valid as the final letter.
func ParseShape(spec string) (Shape, error) {
	if spec == "" {
		return nil, fmt.Errorf("empty shape spec")
	}
	shape := make(Shape, 0, len(spec))
	for i := 0; i < len(spec); i++ {
		var role Role
		switch spec[i] {
		case 'R', 'r':
			role = RoleReceiver
		case 'E', 'e':
			role = RoleException
		case 'T', 't':
			role = RoleTemplate
		case 'V', 'v':
			role = RoleValues
		default:
			return nil, fmt.Errorf("shape %q: unknown slot %q", spec, spec[i])
		}
		if role == RoleValues && i != len(spec)-1 {
			return nil, fmt.Errorf("shape %q: values slot must be last", spec)
		}
		shape = append(shape, role)
	}
	if !shape.hasTemplate() {
		return nil, fmt.Errorf("shape %q: no template slot", spec)
	}
	return shape, nil
}

func (s Shape) hasTemplate() bool {
	for _, r := range s {
		if r == RoleTemplate {
			return true
		}
	}
	return false
}

func (s Shape) String() string {
	var b strings.Builder
	for _, r := range s {
		b.WriteByte("RETV"[r])
	}
	return b.String()
}

// ShapeTable maps method names to their candidate shapes. Shapes are tried in
// order; put exception-leading shapes before their plain counterparts so an
// exception-typed first argument binds to the dedicated slot.
type ShapeTable struct {
	methods map[string][]Shape
}

// NewShapeTable builds an empty table.
func NewShapeTable() *ShapeTable {
	return &ShapeTable{methods: make(map[string][]Shape)}
}

// DefaultShapes covers the conventional structured-logging surface: the six
// leveled methods plus Write, each with and without a leading exception.
func DefaultShapes() *ShapeTable {
	t := NewShapeTable()
	for _, name := range []string{
		"Verbose", "Debug", "Information", "Warning", "Error", "Fatal", "Write",
	} {
		t.Register(name,
			Shape{RoleException, RoleTemplate, RoleValues},
			Shape{RoleTemplate, RoleValues},
		)
	}
	return t
}

// Register adds candidate shapes for a method, appending after any existing
// ones.
func (t *ShapeTable) Register(method string, shapes ...Shape) {
	t.methods[method] = append(t.methods[method], shapes...)
}

// Replace drops any existing shapes for a method and installs the given ones.
func (t *ShapeTable) Replace(method string, shapes ...Shape) {
	t.methods[method] = shapes
}

// Known reports whether the method name is template-consuming.
func (t *ShapeTable) Known(method string) bool {
	_, ok := t.methods[method]
	return ok
}

// Methods returns the registered method names in sorted order.
func (t *ShapeTable) Methods() []string {
	names := make([]string, 0, len(t.methods))
	for name := range t.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Binding is the resolved role assignment for one call's arguments.
type Binding struct {
	Shape     Shape
	Receiver  int // index into Call.Args, -1 when absent
	Exception int // dedicated exception slot, -1 when absent
	Template  int
	Values    []int
}

// Match resolves the call's arguments against the method's candidate shapes.
// The first shape whose fixed slots fit wins; an exception slot only fits an
// exception-typed argument. Static invocations get a leading receiver slot
// unless the shape already declares one.
func (t *ShapeTable) Match(call Call) (Binding, bool) {
	for _, shape := range t.methods[call.Method] {
		candidate := shape
		if call.Static && (len(shape) == 0 || shape[0] != RoleReceiver) {
			candidate = append(Shape{RoleReceiver}, shape...)
		}
		if b, ok := matchShape(candidate, call.Args); ok {
			return b, true
		}
	}
	return Binding{}, false
}

func matchShape(shape Shape, args []Arg) (Binding, bool) {
	b := Binding{Shape: shape, Receiver: -1, Exception: -1, Template: -1}
	i := 0
	for _, role := range shape {
		if role == RoleValues {
			for ; i < len(args); i++ {
				b.Values = append(b.Values, i)
			}
			break
		}
		if i >= len(args) {
			return Binding{}, false
		}
		switch role {
		case RoleReceiver:
			b.Receiver = i
		case RoleException:
			if !args[i].IsException {
				return Binding{}, false
			}
			b.Exception = i
		case RoleTemplate:
			b.Template = i
		}
		i++
	}
	// A shape without a trailing values slot must consume every argument.
	if i != len(args) && (len(shape) == 0 || shape[len(shape)-1] != RoleValues) {
		return Binding{}, false
	}
	if b.Template < 0 {
		return Binding{}, false
	}
	return b, true
}
