// Package processor implements the MetadataProcessor (spec.md §4.8), the
// orchestrator that drives image-info, protocol, class and category
// loading over a parsed Mach-O image and materializes the Metadata graph.
// Grounded throughout on blacktop-go-macho's objc.go (GetObjCClass,
// GetObjCProtocols, GetObjCCategories, GetObjCMethods, GetObjCIvars), whose
// per-entity recursive-load shape this package keeps, generalized to the
// task-parallel fan-out and cache-before-fill discipline spec.md §4.7/§5
// require.
package processor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/apex/log"

	"github.com/nsobject/objcmeta/internal/entitycache"
	"github.com/nsobject/objcmeta/internal/objcstruct"
	"github.com/nsobject/objcmeta/internal/strtab"
	"github.com/nsobject/objcmeta/internal/vmaddr"
	"github.com/nsobject/objcmeta/metadata"
	"github.com/nsobject/objcmeta/swiftdemangle"
	"github.com/nsobject/objcmeta/swiftfield"
	"github.com/nsobject/objcmeta/types"
	objcrec "github.com/nsobject/objcmeta/types/objc"
)

const (
	sectionImageInfo = "__objc_imageinfo"
	sectionProtoList = "__objc_protolist"
	sectionClassList = "__objc_classlist"
	sectionCatList   = "__objc_catlist"

	segData      = "__DATA"
	segDataConst = "__DATA_CONST"
)

// Options configures a Process call. A nil TypeEncodingParser defaults to
// metadata.RawTypeEncodingParser{}, passing observed encodings through
// unchanged, as spec.md §1 specifies for the default configuration. A nil
// Demangler defaults to swiftdemangle.New().
type Options struct {
	Demangler          types.Demangler
	TypeEncodingParser types.TypeEncodingParser
	Log                log.Interface
}

// counters is the mutable, concurrently-updated form of metadata.Diagnostics.
type counters struct {
	protocolsSeeded  int64
	protocolsLoaded  int64
	classesSeeded    int64
	classesLoaded    int64
	categoriesSeeded int64
	categoriesLoaded int64
	entitiesDropped  int64
	recordsMalformed int64
}

func (c *counters) snapshot() metadata.Diagnostics {
	return metadata.Diagnostics{
		ProtocolsSeeded:  int(atomic.LoadInt64(&c.protocolsSeeded)),
		ProtocolsLoaded:  int(atomic.LoadInt64(&c.protocolsLoaded)),
		ClassesSeeded:    int(atomic.LoadInt64(&c.classesSeeded)),
		ClassesLoaded:    int(atomic.LoadInt64(&c.classesLoaded)),
		CategoriesSeeded: int(atomic.LoadInt64(&c.categoriesSeeded)),
		CategoriesLoaded: int(atomic.LoadInt64(&c.categoriesLoaded)),
		EntitiesDropped:  int(atomic.LoadInt64(&c.entitiesDropped)),
		RecordsMalformed: int(atomic.LoadInt64(&c.recordsMalformed)),
	}
}

// loader holds every shared, read-mostly resource a single Process call
// needs. It is created fresh per call and discarded when process()
// returns (spec.md §9: "process-wide only within one process() call; no
// static global state").
type loader struct {
	f     types.MachOFile
	data  []byte
	vma   *vmaddr.Translator
	order types.ByteOrder
	is64  bool

	strings *strtab.Table
	lists   *objcstruct.Reader
	fixups  types.ChainedFixups

	protocols *entitycache.Cache[metadata.Protocol]
	classes   *entitycache.Cache[metadata.Class]

	swift    types.SwiftMetadata
	swiftIdx *swiftfield.Index

	structures *metadata.StructureRegistry
	methodSigs *metadata.MethodSignatureRegistry

	demangler types.Demangler
	log       log.Interface
	diag      counters
}

// Process runs the full driving order of spec.md §4.8 over f and returns
// the materialized Metadata graph, diagnostics counters, and an error only
// when f itself could not be read (spec.md §7's IoFailure; every other
// failure is recovered locally and reflected only in diagnostics).
func Process(f types.MachOFile, opts Options) (*metadata.Metadata, metadata.Diagnostics, error) {
	if f == nil {
		return nil, metadata.Diagnostics{}, fmt.Errorf("processor: nil MachOFile")
	}
	data := f.Data()
	if data == nil {
		return nil, metadata.Diagnostics{}, fmt.Errorf("processor: MachOFile.Data() returned nil")
	}

	segs := make([]vmaddr.Segment, 0, len(f.Segments()))
	for _, s := range f.Segments() {
		segs = append(segs, vmaddr.Segment{VMBase: s.VMAddr, VMSize: s.VMSize, FileOff: s.FileOff, FileSize: s.FileSize})
	}
	vt := vmaddr.New(segs)

	lg := opts.Log
	if lg == nil {
		lg = log.Log
	}

	var fixups types.ChainedFixups
	if cf, ok := f.ChainedFixups(); ok {
		fixups = cf
	}

	parser := opts.TypeEncodingParser
	if parser == nil {
		parser = metadata.RawTypeEncodingParser{}
	}
	demangler := opts.Demangler
	if demangler == nil {
		demangler = swiftdemangle.New()
	}

	l := &loader{
		f:          f,
		data:       data,
		vma:        vt,
		order:      f.ByteOrder(),
		is64:       f.Is64Bit(),
		strings:    strtab.New(data, vt),
		fixups:     fixups,
		protocols:  entitycache.New[metadata.Protocol](),
		classes:    entitycache.New[metadata.Class](),
		structures: metadata.NewStructureRegistry(parser),
		methodSigs: metadata.NewMethodSignatureRegistry(parser),
		demangler:  demangler,
		log:        lg,
	}
	l.lists = objcstruct.New(data, vt, l.order, l.is64)

	if sm, ok := f.SwiftMetadata(); ok {
		l.swift = sm
		l.swiftIdx = swiftfield.Build(sm.FieldDescriptors(), sm.Types(), demangler)
	}

	result := &metadata.Metadata{}

	// Step 1: ImageInfo. Best-effort, failures non-fatal.
	if ii := l.loadImageInfo(); ii != nil {
		result.ImageInfo = ii
	}

	// Step 2: all protocols, one task per seed address.
	protoSeeds := l.seedAddresses(sectionProtoList)
	atomic.AddInt64(&l.diag.protocolsSeeded, int64(len(protoSeeds)))
	l.loadProtocolsParallel(protoSeeds)

	// Step 3: all classes, one task per seed address. Protocol cache is
	// complete and safe to read from many goroutines now.
	classSeeds := l.seedAddresses(sectionClassList)
	atomic.AddInt64(&l.diag.classesSeeded, int64(len(classSeeds)))
	l.loadClassesParallel(classSeeds)

	// Step 4: all categories, sequential (spec.md §4.8: "category count is
	// small and each resolves back into the class cache").
	catSeeds := l.seedAddresses(sectionCatList)
	atomic.AddInt64(&l.diag.categoriesSeeded, int64(len(catSeeds)))
	categories := make([]*metadata.Category, 0, len(catSeeds))
	for _, addr := range catSeeds {
		if cat := l.loadCategoryAt(addr); cat != nil {
			categories = append(categories, cat)
			atomic.AddInt64(&l.diag.categoriesLoaded, 1)
		}
	}
	result.Categories = categories

	result.Protocols = l.protocols.Values()
	result.Classes = l.classes.Values()
	atomic.StoreInt64(&l.diag.protocolsLoaded, int64(len(result.Protocols)))
	atomic.StoreInt64(&l.diag.classesLoaded, int64(len(result.Classes)))

	// Step 5: registries. Every observed type encoding across every
	// member of every entity feeds the external parser exactly once.
	l.buildRegistries(result)
	result.Structures = l.structures
	result.MethodSignatures = l.methodSigs

	return result, l.diag.snapshot(), nil
}

// seedAddresses reads the count-prefixed pointer list at the named section
// (searching __DATA then __DATA_CONST, per spec.md §4.8), decoding each
// entry through the pointer decoder and keeping only resolved addresses.
func (l *loader) seedAddresses(sectionName string) []uint64 {
	sec := l.findSection(sectionName)
	if sec == nil {
		return nil
	}
	width := uint64(4)
	if l.is64 {
		width = 8
	}
	count := sec.Size / width
	out := make([]uint64, 0, count)
	for i := uint64(0); i < count; i++ {
		vaddr := sec.Addr + i*width
		raw, err := l.readPointerAt(vaddr)
		if err != nil {
			atomic.AddInt64(&l.diag.recordsMalformed, 1)
			continue
		}
		res := l.decodePointer(raw)
		if res.Kind == pointerKindAddress && res.Address != 0 {
			out = append(out, res.Address)
		}
	}
	return out
}

func (l *loader) findSection(name string) *types.Section {
	for _, segName := range [2]string{segData, segDataConst} {
		for _, seg := range l.f.Segments() {
			if seg.Name != segName {
				continue
			}
			if sec := seg.Section(name); sec != nil {
				return sec
			}
		}
	}
	return nil
}

// loadImageInfo reads the single objc_image_info record, if present.
func (l *loader) loadImageInfo() *metadata.ImageInfo {
	sec := l.findSection(sectionImageInfo)
	if sec == nil {
		return nil
	}
	o, err := l.lists.Cursor(sec.Addr)
	if err != nil {
		return nil
	}
	rec, err := objcrec.ReadImageInfoT(o)
	if err != nil {
		l.log.WithError(err).Debug("objc_image_info: short read")
		return nil
	}
	return &metadata.ImageInfo{Version: rec.Version, Flags: rec.Flags}
}

func (l *loader) loadProtocolsParallel(seeds []uint64) {
	var wg sync.WaitGroup
	wg.Add(len(seeds))
	for _, addr := range seeds {
		addr := addr
		go func() {
			defer wg.Done()
			l.loadProtocolAt(addr)
		}()
	}
	wg.Wait()
}

func (l *loader) loadClassesParallel(seeds []uint64) {
	var wg sync.WaitGroup
	wg.Add(len(seeds))
	for _, addr := range seeds {
		addr := addr
		go func() {
			defer wg.Done()
			l.loadClassAt(addr)
		}()
	}
	wg.Wait()
}

// buildRegistries feeds every observed type encoding into the structure
// and method-signature registries.
func (l *loader) buildRegistries(m *metadata.Metadata) {
	observeMethods := func(ms []metadata.Method) {
		for _, meth := range ms {
			l.methodSigs.Observe(meth.TypeEncoding)
		}
	}
	for _, p := range m.Protocols {
		observeMethods(p.RequiredInstanceMethods)
		observeMethods(p.RequiredClassMethods)
		observeMethods(p.OptionalInstanceMethods)
		observeMethods(p.OptionalClassMethods)
	}
	for _, c := range m.Classes {
		observeMethods(c.InstanceMethods)
		observeMethods(c.ClassMethods)
		for _, iv := range c.Ivars {
			l.structures.Observe(iv.TypeEncoding)
		}
	}
	for _, cat := range m.Categories {
		observeMethods(cat.InstanceMethods)
		observeMethods(cat.ClassMethods)
	}
}
