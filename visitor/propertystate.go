package visitor

import (
	"sort"
	"strings"

	"github.com/nsobject/objcmeta/metadata"
)

// PropertyState tracks, for one container's worth of properties, which
// accessor selectors they suppress and which properties a traversal has
// already emitted. Built fresh per protocol/class/category (spec.md
// §4.10).
type PropertyState struct {
	properties  []metadata.Property
	byAccessor  map[string]int
	used        map[int]bool
}

// NewPropertyState indexes properties by both their getter and setter
// selectors.
func NewPropertyState(properties []metadata.Property) *PropertyState {
	ps := &PropertyState{
		properties: properties,
		byAccessor: make(map[string]int, len(properties)*2),
		used:       make(map[int]bool),
	}
	for i, p := range properties {
		getter, setter := accessorSelectors(p)
		if getter != "" {
			ps.byAccessor[getter] = i
		}
		if setter != "" {
			ps.byAccessor[setter] = i
		}
	}
	return ps
}

// PropertyForAccessor returns the property whose getter or setter selector
// is sel.
func (ps *PropertyState) PropertyForAccessor(sel string) (*metadata.Property, bool) {
	i, ok := ps.byAccessor[sel]
	if !ok {
		return nil, false
	}
	return &ps.properties[i], true
}

// MarkUsed records that p's declaration has been emitted, so it is excluded
// from RemainingProperties.
func (ps *PropertyState) MarkUsed(p *metadata.Property) {
	for i := range ps.properties {
		if ps.properties[i].Name == p.Name {
			ps.used[i] = true
			return
		}
	}
}

// RemainingProperties returns every property not yet marked used, sorted
// by name.
func (ps *PropertyState) RemainingProperties() []metadata.Property {
	out := make([]metadata.Property, 0, len(ps.properties))
	for i, p := range ps.properties {
		if !ps.used[i] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return compareNames(out[i].Name, out[j].Name) < 0 })
	return out
}

// accessorSelectors derives a property's getter and setter selectors from
// its attribute string, honoring custom G/S overrides and R (readonly,
// which has no setter).
func accessorSelectors(p metadata.Property) (getter, setter string) {
	getter = p.Name
	setter = defaultSetterSelector(p.Name)
	readonly := false
	for _, part := range strings.Split(p.AttributeString, ",") {
		if part == "" {
			continue
		}
		switch part[0] {
		case 'G':
			getter = part[1:]
		case 'S':
			setter = part[1:]
		case 'R':
			readonly = true
		}
	}
	if readonly {
		setter = ""
	}
	return getter, setter
}

func defaultSetterSelector(name string) string {
	if name == "" {
		return ""
	}
	return "set" + strings.ToUpper(name[:1]) + name[1:] + ":"
}
