package visitor

import (
	"regexp"

	"github.com/nsobject/objcmeta/metadata"
)

// Options configures one Traverse call: whether and how each container
// kind is sorted, and an optional name filter (spec.md §4.10).
type Options struct {
	ProtocolSort  SortMode // SortNone or SortByName
	ClassSort     SortMode // SortNone, SortByName, or SortByInheritanceDepth
	CategorySort  SortMode // SortNone or SortByName
	SortMethods   bool     // apply SortByName within every method list
	NameFilter    *regexp.Regexp
	HideProtocols bool
}

func (o Options) included(name string) bool {
	if o.NameFilter == nil {
		return true
	}
	return o.NameFilter.MatchString(name)
}

// Traverse walks m exactly once, in the fixed order spec.md §4.10
// prescribes, calling v's hooks. It never mutates m.
func Traverse(m *metadata.Metadata, v Visitor, opts Options) {
	v.WillBegin()

	info := ProcessorInfo{
		ImageInfo:     m.ImageInfo,
		ProtocolCount: len(m.Protocols),
		ClassCount:    len(m.Classes),
		CategoryCount: len(m.Categories),
	}
	v.WillVisitProcessor(info)
	v.VisitProcessor(info)
	v.DidVisitProcessor(info)

	if !opts.HideProtocols {
		protocols := m.Protocols
		if opts.ProtocolSort == SortByName {
			protocols = append([]*metadata.Protocol(nil), protocols...)
			sortProtocolsByName(protocols)
		}
		for _, p := range protocols {
			if !opts.included(p.Name) {
				continue
			}
			visitProtocol(p, v, opts)
		}
	}

	classes := m.Classes
	if opts.ClassSort != SortNone {
		classes = append([]*metadata.Class(nil), classes...)
		sortClasses(classes, opts.ClassSort)
	}
	for _, c := range classes {
		if !opts.included(c.Name) {
			continue
		}
		visitClass(c, v, opts)
	}

	categories := m.Categories
	if opts.CategorySort == SortByName {
		categories = append([]*metadata.Category(nil), categories...)
		sortCategoriesByName(categories)
	}
	for _, c := range categories {
		if !opts.included(c.Name) {
			continue
		}
		visitCategory(c, v, opts)
	}

	v.DidEnd()
}

func visitProtocol(p *metadata.Protocol, v Visitor, opts Options) {
	v.WillVisitProtocol(p)

	v.WillVisitPropertiesOfProtocol()
	for _, prop := range p.Properties {
		v.VisitProperty(prop)
	}
	v.DidVisitPropertiesOfProtocol()

	state := NewPropertyState(p.Properties)

	classMethods, instanceMethods := p.RequiredClassMethods, p.RequiredInstanceMethods
	if opts.SortMethods {
		classMethods = sortedMethodsCopy(classMethods)
		instanceMethods = sortedMethodsCopy(instanceMethods)
	}
	for _, m := range classMethods {
		v.VisitClassMethod(m)
	}
	visitInstanceMethods(instanceMethods, state, v)

	if len(p.OptionalClassMethods) > 0 || len(p.OptionalInstanceMethods) > 0 {
		v.WillVisitOptionalMethods()
		optClassMethods, optInstanceMethods := p.OptionalClassMethods, p.OptionalInstanceMethods
		if opts.SortMethods {
			optClassMethods = sortedMethodsCopy(optClassMethods)
			optInstanceMethods = sortedMethodsCopy(optInstanceMethods)
		}
		for _, m := range optClassMethods {
			v.VisitClassMethod(m)
		}
		visitInstanceMethods(optInstanceMethods, state, v)
		v.DidVisitOptionalMethods()
	}

	v.VisitRemainingProperties(state)
	v.DidVisitProtocol(p)
}

func visitClass(c *metadata.Class, v Visitor, opts Options) {
	v.WillVisitClass(c)

	if len(c.Ivars) > 0 {
		v.WillVisitIvarsOfClass()
		for _, iv := range c.Ivars {
			v.VisitIvar(iv)
		}
		v.DidVisitIvarsOfClass()
	}

	v.WillVisitPropertiesOfClass()
	for _, p := range c.Properties {
		v.VisitProperty(p)
	}
	v.DidVisitPropertiesOfClass()

	state := NewPropertyState(c.Properties)

	classMethods, instanceMethods := c.ClassMethods, c.InstanceMethods
	if opts.SortMethods {
		classMethods = sortedMethodsCopy(classMethods)
		instanceMethods = sortedMethodsCopy(instanceMethods)
	}
	for _, m := range classMethods {
		v.VisitClassMethod(m)
	}
	visitInstanceMethods(instanceMethods, state, v)

	v.VisitRemainingProperties(state)
	v.DidVisitClass(c)
}

func visitCategory(c *metadata.Category, v Visitor, opts Options) {
	v.WillVisitCategory(c)

	v.WillVisitPropertiesOfCategory()
	for _, p := range c.Properties {
		v.VisitProperty(p)
	}
	v.DidVisitPropertiesOfCategory()

	state := NewPropertyState(c.Properties)

	classMethods, instanceMethods := c.ClassMethods, c.InstanceMethods
	if opts.SortMethods {
		classMethods = sortedMethodsCopy(classMethods)
		instanceMethods = sortedMethodsCopy(instanceMethods)
	}
	for _, m := range classMethods {
		v.VisitClassMethod(m)
	}
	visitInstanceMethods(instanceMethods, state, v)

	v.VisitRemainingProperties(state)
	v.DidVisitCategory(c)
}

// visitInstanceMethods calls VisitInstanceMethod for every method except
// one whose selector names a property's getter or setter (spec.md §8
// property 4): that method is consumed into the property state instead.
func visitInstanceMethods(methods []metadata.Method, state *PropertyState, v Visitor) {
	for _, m := range methods {
		if prop, ok := state.PropertyForAccessor(m.Selector); ok {
			state.MarkUsed(prop)
			continue
		}
		v.VisitInstanceMethod(m, state)
	}
}

func sortedMethodsCopy(ms []metadata.Method) []metadata.Method {
	out := append([]metadata.Method(nil), ms...)
	sortMethodsByName(out)
	return out
}
