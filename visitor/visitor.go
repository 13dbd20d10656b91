// Package visitor implements the VisitorEngine (spec.md §4.10): a capability-
// set Visitor interface with no-op defaults, and a single traverse() driver
// that walks a materialized metadata.Metadata exactly once in the order the
// specification fixes. Grounded on other_examples'
// tb3457-ipsw__internal-commands-macho-objc.go DumpClass/DumpProtocol,
// which drives an equivalent (if less formalized) protocol-then-class walk
// over the same entity graph and sorts with
// slices.SortStableFunc(classes, func(a,b) int { return cmp.Compare(a.Name,
// b.Name) }); this package keeps that stable-sort idiom for its own By-name
// ordering.
package visitor

import (
	"github.com/nsobject/objcmeta/metadata"
)

// ProcessorInfo summarizes the Metadata a traversal is about to walk,
// handed to the lifecycle hooks that bracket the whole run.
type ProcessorInfo struct {
	ImageInfo      *metadata.ImageInfo
	ProtocolCount  int
	ClassCount     int
	CategoryCount  int
}

// Visitor is the capability set spec.md §4.10 describes: lifecycle hooks,
// container hooks, member hooks, and section hooks. Every hook has a
// no-op default via BaseVisitor; concrete visitors embed it and override
// only the hooks they need.
type Visitor interface {
	WillBegin()
	DidEnd()

	WillVisitProcessor(info ProcessorInfo)
	VisitProcessor(info ProcessorInfo)
	DidVisitProcessor(info ProcessorInfo)

	WillVisitProtocol(p *metadata.Protocol)
	DidVisitProtocol(p *metadata.Protocol)
	WillVisitClass(c *metadata.Class)
	DidVisitClass(c *metadata.Class)
	WillVisitCategory(c *metadata.Category)
	DidVisitCategory(c *metadata.Category)

	WillVisitPropertiesOfProtocol()
	DidVisitPropertiesOfProtocol()
	WillVisitPropertiesOfClass()
	DidVisitPropertiesOfClass()
	WillVisitPropertiesOfCategory()
	DidVisitPropertiesOfCategory()

	WillVisitIvarsOfClass()
	DidVisitIvarsOfClass()

	WillVisitOptionalMethods()
	DidVisitOptionalMethods()

	VisitClassMethod(m metadata.Method)
	VisitInstanceMethod(m metadata.Method, state *PropertyState)
	VisitIvar(iv metadata.InstanceVariable)
	VisitProperty(p metadata.Property)
	VisitRemainingProperties(state *PropertyState)
}

// BaseVisitor implements every Visitor hook as a no-op. Embed it in a
// concrete visitor and override only what's needed.
type BaseVisitor struct{}

func (BaseVisitor) WillBegin() {}
func (BaseVisitor) DidEnd()    {}

func (BaseVisitor) WillVisitProcessor(ProcessorInfo) {}
func (BaseVisitor) VisitProcessor(ProcessorInfo)     {}
func (BaseVisitor) DidVisitProcessor(ProcessorInfo)  {}

func (BaseVisitor) WillVisitProtocol(*metadata.Protocol) {}
func (BaseVisitor) DidVisitProtocol(*metadata.Protocol)  {}
func (BaseVisitor) WillVisitClass(*metadata.Class)       {}
func (BaseVisitor) DidVisitClass(*metadata.Class)        {}
func (BaseVisitor) WillVisitCategory(*metadata.Category) {}
func (BaseVisitor) DidVisitCategory(*metadata.Category)  {}

func (BaseVisitor) WillVisitPropertiesOfProtocol() {}
func (BaseVisitor) DidVisitPropertiesOfProtocol()  {}
func (BaseVisitor) WillVisitPropertiesOfClass()    {}
func (BaseVisitor) DidVisitPropertiesOfClass()     {}
func (BaseVisitor) WillVisitPropertiesOfCategory() {}
func (BaseVisitor) DidVisitPropertiesOfCategory()  {}

func (BaseVisitor) WillVisitIvarsOfClass() {}
func (BaseVisitor) DidVisitIvarsOfClass()  {}

func (BaseVisitor) WillVisitOptionalMethods() {}
func (BaseVisitor) DidVisitOptionalMethods()  {}

func (BaseVisitor) VisitClassMethod(metadata.Method)                    {}
func (BaseVisitor) VisitInstanceMethod(metadata.Method, *PropertyState) {}
func (BaseVisitor) VisitIvar(metadata.InstanceVariable)                 {}
func (BaseVisitor) VisitProperty(metadata.Property)                     {}
func (BaseVisitor) VisitRemainingProperties(*PropertyState)             {}
