package visitor

import (
	"regexp"
	"testing"

	"github.com/nsobject/objcmeta/metadata"
)

// recordingVisitor captures every hook call it cares about, embedding
// BaseVisitor for the rest.
type recordingVisitor struct {
	BaseVisitor
	instanceMethods []string
	classMethods    []string
	properties      []string
	remaining       []string
	order           []string
}

func (r *recordingVisitor) WillVisitProtocol(p *metadata.Protocol) {
	r.order = append(r.order, "protocol:"+p.Name)
}

func (r *recordingVisitor) WillVisitClass(c *metadata.Class) {
	r.order = append(r.order, "class:"+c.Name)
}

func (r *recordingVisitor) WillVisitCategory(c *metadata.Category) {
	r.order = append(r.order, "category:"+c.Name)
}

func (r *recordingVisitor) VisitClassMethod(m metadata.Method) {
	r.classMethods = append(r.classMethods, m.Selector)
}

func (r *recordingVisitor) VisitInstanceMethod(m metadata.Method, state *PropertyState) {
	r.instanceMethods = append(r.instanceMethods, m.Selector)
}

func (r *recordingVisitor) VisitProperty(p metadata.Property) {
	r.properties = append(r.properties, p.Name)
}

func (r *recordingVisitor) VisitRemainingProperties(state *PropertyState) {
	for _, p := range state.RemainingProperties() {
		r.remaining = append(r.remaining, p.Name)
	}
}

// TestAccessorMethodsSuppressed verifies spec.md §8 testable property 4: a
// method whose selector is a property's getter or setter is never passed to
// VisitInstanceMethod.
func TestAccessorMethodsSuppressed(t *testing.T) {
	class := &metadata.Class{
		Name: "Foo",
		Properties: []metadata.Property{
			{Name: "name", AttributeString: "T@\"NSString\",&,N,V_name"},
		},
		InstanceMethods: []metadata.Method{
			{Selector: "name"},
			{Selector: "setName:"},
			{Selector: "doSomething"},
		},
	}
	m := &metadata.Metadata{Classes: []*metadata.Class{class}}
	v := &recordingVisitor{}
	Traverse(m, v, Options{})

	if len(v.instanceMethods) != 1 || v.instanceMethods[0] != "doSomething" {
		t.Fatalf("instance methods visited = %v, want only [doSomething]", v.instanceMethods)
	}
	if len(v.remaining) != 0 {
		t.Fatalf("remaining properties = %v, want none (accessors consumed \"name\")", v.remaining)
	}
}

func TestRemainingPropertiesSurfaceWhenNoAccessorSeen(t *testing.T) {
	class := &metadata.Class{
		Name: "Foo",
		Properties: []metadata.Property{
			{Name: "count", AttributeString: "Ti"},
		},
		InstanceMethods: nil,
	}
	m := &metadata.Metadata{Classes: []*metadata.Class{class}}
	v := &recordingVisitor{}
	Traverse(m, v, Options{})

	if len(v.remaining) != 1 || v.remaining[0] != "count" {
		t.Fatalf("remaining properties = %v, want [count]", v.remaining)
	}
}

func TestCustomAccessorSelectorsSuppressed(t *testing.T) {
	class := &metadata.Class{
		Name: "Foo",
		Properties: []metadata.Property{
			{Name: "enabled", AttributeString: "TB,GisEnabled,SsetIsEnabled:"},
		},
		InstanceMethods: []metadata.Method{
			{Selector: "isEnabled"},
			{Selector: "setIsEnabled:"},
		},
	}
	m := &metadata.Metadata{Classes: []*metadata.Class{class}}
	v := &recordingVisitor{}
	Traverse(m, v, Options{})

	if len(v.instanceMethods) != 0 {
		t.Fatalf("instance methods visited = %v, want none (both are custom accessors)", v.instanceMethods)
	}
}

func TestTraverseOrderProtocolsThenClassesThenCategories(t *testing.T) {
	m := &metadata.Metadata{
		Protocols:  []*metadata.Protocol{{Name: "P"}},
		Classes:    []*metadata.Class{{Name: "C"}},
		Categories: []*metadata.Category{{Name: "Cat"}},
	}
	v := &recordingVisitor{}
	Traverse(m, v, Options{})
	want := []string{"protocol:P", "class:C", "category:Cat"}
	if len(v.order) != len(want) || v.order[0] != want[0] || v.order[1] != want[1] || v.order[2] != want[2] {
		t.Fatalf("container visit order = %v, want %v", v.order, want)
	}
}

type hookVisitor struct {
	BaseVisitor
	onProtocol func(*metadata.Protocol)
}

func (h *hookVisitor) WillVisitProtocol(p *metadata.Protocol) {
	if h.onProtocol != nil {
		h.onProtocol(p)
	}
}

func TestTraverseHideProtocols(t *testing.T) {
	m := &metadata.Metadata{Protocols: []*metadata.Protocol{{Name: "P"}}}
	called := false
	hv := &hookVisitor{onProtocol: func(*metadata.Protocol) { called = true }}
	Traverse(m, hv, Options{HideProtocols: true})
	if called {
		t.Fatalf("WillVisitProtocol called with HideProtocols set")
	}
}

func TestNameFilter(t *testing.T) {
	m := &metadata.Metadata{
		Classes: []*metadata.Class{{Name: "Foo"}, {Name: "Bar"}},
	}
	v := &recordingVisitor{}
	Traverse(m, v, Options{NameFilter: regexp.MustCompile("^Foo$")})
	if len(v.order) != 1 || v.order[0] != "class:Foo" {
		t.Fatalf("filtered traversal order = %v, want [class:Foo]", v.order)
	}
}
