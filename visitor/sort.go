package visitor

import (
	"sort"
	"strings"

	"github.com/nsobject/objcmeta/metadata"
)

// SortMode selects how a container list is ordered before traversal.
type SortMode int

const (
	// SortNone preserves process()'s completion order.
	SortNone SortMode = iota
	// SortByName orders by a case-insensitive name compare (see
	// compareNames; the compare is not locale-aware).
	SortByName
	// SortByInheritanceDepth orders classes by superclass-chain depth,
	// ascending, ties broken by name. Valid only for classes.
	SortByInheritanceDepth
)

// compareNames is a case-insensitive compare: strings.ToLower of both
// names compared byte-wise first, original-case comparison to break ties
// so the order is a stable total order. It applies no locale collation
// rules (accented letters sort by their UTF-8 bytes). No example in this
// module's corpus imports a locale-collation library directly (only an
// indirect, unused golang.org/x/text/... transitive dependency appears in
// one retrieved repo's manifest); strings.ToLower matches
// blacktop-go-macho's own case-insensitive compares (file.go) and needs no
// new dependency.
func compareNames(a, b string) int {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func sortProtocolsByName(ps []*metadata.Protocol) {
	sort.SliceStable(ps, func(i, j int) bool { return compareNames(ps[i].Name, ps[j].Name) < 0 })
}

func sortCategoriesByName(cs []*metadata.Category) {
	sort.SliceStable(cs, func(i, j int) bool { return compareNames(cs[i].Name, cs[j].Name) < 0 })
}

func sortMethodsByName(ms []metadata.Method) {
	sort.SliceStable(ms, func(i, j int) bool { return compareNames(ms[i].Selector, ms[j].Selector) < 0 })
}

func sortClasses(classes []*metadata.Class, mode SortMode) {
	switch mode {
	case SortByName:
		sort.SliceStable(classes, func(i, j int) bool { return compareNames(classes[i].Name, classes[j].Name) < 0 })
	case SortByInheritanceDepth:
		depth := classDepths(classes)
		sort.SliceStable(classes, func(i, j int) bool {
			di, dj := depth[classes[i].Address], depth[classes[j].Address]
			if di != dj {
				return di < dj
			}
			return compareNames(classes[i].Name, classes[j].Name) < 0
		})
	}
}

// classDepths computes each class's superclass-chain depth, counting only
// superclasses present in this binary's own class set (spec.md §4.10:
// "external superclasses do not contribute to depth").
func classDepths(classes []*metadata.Class) map[uint64]int {
	byAddr := make(map[uint64]*metadata.Class, len(classes))
	for _, c := range classes {
		byAddr[c.Address] = c
	}
	depth := make(map[uint64]int, len(classes))
	visiting := make(map[uint64]bool, len(classes))

	var compute func(c *metadata.Class) int
	compute = func(c *metadata.Class) int {
		if d, ok := depth[c.Address]; ok {
			return d
		}
		if visiting[c.Address] {
			return 0 // malformed cycle; don't loop forever
		}
		visiting[c.Address] = true
		d := 0
		if ref := c.SuperclassRef; ref != nil && !ref.IsExternal() {
			if sc, ok := byAddr[ref.Address]; ok {
				d = compute(sc) + 1
			}
		}
		delete(visiting, c.Address)
		depth[c.Address] = d
		return d
	}
	for _, c := range classes {
		compute(c)
	}
	return depth
}
