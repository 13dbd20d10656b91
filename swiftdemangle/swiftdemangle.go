// Package swiftdemangle implements types.Demangler, this module's default
// Swift name demangler. Grounded on
// blacktop-go-macho's swift/demangle/demangle.go façade (NormalizeIdentifier,
// the length-prefixed identifier reader, and the swiftStandardTypes
// abbreviation table are adapted line-for-line from it) but scoped down from
// its internal/swiftdemangle backing engine: spec.md treats the demangler as
// a swappable external collaborator ("we consume a demangle(string) ->
// string function"), so this package favors a compact, self-contained
// mangling-grammar reader over porting the teacher's ~2000-line general
// parser/node/formatter (see DESIGN.md).
package swiftdemangle

import (
	"strconv"
	"strings"
)

var methodPrefixes = []string{"func ", "method ", "getter ", "setter ", "modify ", "init "}

// Demangler is the zero-value-usable default types.Demangler implementation.
type Demangler struct{}

// New returns a ready-to-use Demangler.
func New() *Demangler { return &Demangler{} }

// Demangle returns a best-effort human-readable form of a mangled Swift
// name, or the input unchanged if it doesn't look like one.
func (Demangler) Demangle(s string) string {
	return NormalizeIdentifier(s)
}

// NormalizeIdentifier returns a best-effort demangled representation of the
// input string, or the string itself when nothing recognizable is found.
func NormalizeIdentifier(name string) string {
	if demangled, ok := TryNormalizeIdentifier(name); ok {
		return demangled
	}
	return name
}

// TryNormalizeIdentifier attempts to demangle the provided identifier,
// returning the demangled form and a success flag.
func TryNormalizeIdentifier(name string) (string, bool) {
	for _, pref := range methodPrefixes {
		if strings.HasPrefix(name, pref) {
			body := strings.TrimSpace(name[len(pref):])
			if sym, ok := demangleSymbolName(body); ok {
				return pref + sym, true
			}
		}
	}
	return demangleCandidateString(name)
}

func demangleCandidateString(candidate string) (string, bool) {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return "", false
	}
	mangled := strings.TrimPrefix(trimmed, "_")

	if stable, ok := demangleStableSymbolName(mangled); ok {
		return stable, true
	}
	if legacy, ok := demangleLegacyTypeName(trimmed); ok {
		return legacy, true
	}
	if symbol, ok := demangleSymbolName(trimmed); ok {
		return symbol, true
	}
	if tuple, ok := demangleTupleFallback(trimmed); ok {
		return tuple, true
	}
	if strings.Contains(trimmed, ".") {
		return trimmed, true
	}
	return trimmed, false
}

// DemangleClassName parses an ObjC-visible Swift class name of the form
// "_TtC<module><name>" or "_TtGC<module><name>..." (generic class
// reference; trailing generic-argument mangling is ignored) into its
// module and simple-name components.
func (Demangler) DemangleClassName(s string) (module, name string, ok bool) {
	rest := s
	switch {
	case strings.HasPrefix(rest, "_TtGC"):
		rest = rest[len("_TtGC"):]
	case strings.HasPrefix(rest, "_TtC"):
		rest = rest[len("_TtC"):]
	default:
		return "", "", false
	}
	p := &identReader{s: rest}
	module, ok = p.readIdent()
	if !ok {
		return "", "", false
	}
	name, ok = p.readIdent()
	if !ok {
		return "", "", false
	}
	return module, name, true
}

// DemangleNestedClassName parses a nested ObjC-visible Swift class name of
// the form "_TtCC<module><outer><inner>" (or the triple-nested "_TtCCC"
// form) into its ordered name components: module, then each enclosing type
// from outermost to innermost.
func (Demangler) DemangleNestedClassName(s string) []string {
	rest := s
	switch {
	case strings.HasPrefix(rest, "_TtCCC"):
		rest = rest[len("_TtCCC"):]
	case strings.HasPrefix(rest, "_TtCC"):
		rest = rest[len("_TtCC"):]
	default:
		return nil
	}
	p := &identReader{s: rest}
	var parts []string
	for {
		ident, ok := p.readIdent()
		if !ok {
			break
		}
		parts = append(parts, ident)
	}
	if len(parts) < 2 {
		return nil
	}
	return parts
}

// ExtractTypeName returns the last identifier component of a mangled
// symbol or type name: the simple, unqualified name.
func (Demangler) ExtractTypeName(mangled string) string {
	demangled := NormalizeIdentifier(mangled)
	if i := strings.LastIndex(demangled, "."); i >= 0 && i+1 < len(demangled) {
		return demangled[i+1:]
	}
	return demangled
}

// DemangleSymbolicType demangles a field record's raw mangled-type bytes.
// Swift field descriptors may embed symbolic references (control bytes
// 0x01-0x12 followed by a 4-byte relative offset into metadata this module
// never parses); those are unresolvable here, and this returns "" for them
// rather than guessing. Plain textual mangled type data demangles the same
// way a mangled-type-name string would.
func (d Demangler) DemangleSymbolicType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if data[0] >= 0x01 && data[0] <= 0x12 {
		return ""
	}
	return d.Demangle(string(data))
}

func demangleTupleFallback(raw string) (string, bool) {
	if raw == "" || !strings.Contains(raw, "_") {
		return "", false
	}
	if strings.ContainsAny(raw, "$ ") {
		return "", false
	}
	base, suffix := trimOptionalSuffix(raw)
	if strings.HasPrefix(base, "_") || strings.HasSuffix(base, "_") {
		return "", false
	}
	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return "", false
	}
	elements := make([]string, len(parts))
	for idx, part := range parts {
		if part == "" {
			return "", false
		}
		fragment := part
		if idx == len(parts)-1 && strings.HasSuffix(fragment, "t") {
			fragment = fragment[:len(fragment)-1]
			if fragment == "" {
				return "", false
			}
		}
		elem, ok := standardTypeAbbreviation(fragment)
		if !ok {
			return "", false
		}
		elements[idx] = elem
	}
	result := "(" + strings.Join(elements, ", ") + ")"
	if suffix != "" {
		result += suffix
	}
	return result, true
}

func trimOptionalSuffix(raw string) (string, string) {
	base := raw
	var suffix strings.Builder
	for len(base) > 2 && strings.HasSuffix(base, "Sg") {
		base = base[:len(base)-2]
		suffix.WriteString("?")
	}
	return base, suffix.String()
}

func demangleLegacyTypeName(mangled string) (string, bool) {
	if !strings.HasPrefix(mangled, "_T") {
		return "", false
	}
	rest := mangled[2:]
	if len(rest) == 0 {
		return "", false
	}
	if rest[0] == 't' {
		rest = rest[1:]
		if len(rest) == 0 {
			return "", false
		}
	}
	if rest[0] >= 'A' && rest[0] <= 'Z' || rest[0] >= 'a' && rest[0] <= 'z' {
		rest = rest[1:]
	}
	p := &identReader{s: rest}
	var parts []string
	for {
		ident, ok := p.readIdent()
		if !ok {
			break
		}
		parts = append(parts, ident)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "."), true
}

func demangleStableSymbolName(symbol string) (string, bool) {
	if len(symbol) == 0 {
		return "", false
	}
	switch {
	case strings.HasPrefix(symbol, "$s"), strings.HasPrefix(symbol, "$S"):
		symbol = symbol[2:]
	default:
		return "", false
	}

	if strings.HasSuffix(symbol, "Sg") {
		baseSymbol := "$s" + symbol[:len(symbol)-2]
		baseDemangled := NormalizeIdentifier(baseSymbol)
		if baseDemangled != baseSymbol {
			return baseDemangled + "?", true
		}
	}

	if text, ok := standardTypeAbbreviation(symbol); ok && len(symbol) == 2 {
		return text, true
	}

	var parts []string
	suffix := ""
	for len(symbol) > 0 {
		switch symbol[0] {
		case 's':
			parts = append(parts, "Swift")
			symbol = symbol[1:]
			continue
		case 'S', 'o':
			symbol = symbol[1:]
			continue
		}
		if symbol[0] < '0' || symbol[0] > '9' {
			suffix = symbol
			symbol = ""
			break
		}
		p := &identReader{s: symbol}
		ident, ok := p.readIdent()
		if !ok {
			return "", false
		}
		symbol = p.s[p.pos:]
		if ident != "" {
			parts = append(parts, ident)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	if suffix == "Sg" {
		parts[len(parts)-1] += "?"
	}
	return strings.Join(parts, "."), true
}

// demangleSymbolName parses a "$s<module><len><ident>...<context><base>"
// stable symbol into "module[.context...].base(labels...)" form.
func demangleSymbolName(symbol string) (string, bool) {
	s := strings.TrimPrefix(symbol, "_")
	if !strings.HasPrefix(s, "$s") && !strings.HasPrefix(s, "$S") {
		return "", false
	}
	s = s[2:]
	p := &identReader{s: s}

	module, ok := p.readIdent()
	if !ok {
		return "", false
	}
	var contexts []string

	for p.pos < len(p.s) {
		start := p.pos
		ident, ok := p.readIdent()
		if !ok {
			break
		}
		if p.pos >= len(p.s) {
			p.pos = start
			break
		}
		kind := p.s[p.pos]
		if isContextKind(kind) {
			p.pos++
			contexts = append(contexts, ident)
			continue
		}
		baseParts := []string{ident}
		for p.pos < len(p.s) {
			if p.s[p.pos] == '_' {
				p.pos++
				next, ok := p.readIdent()
				if !ok {
					break
				}
				baseParts = append(baseParts, next)
				continue
			}
			break
		}
		name := baseParts[0]
		if len(baseParts) > 1 {
			labels := make([]string, len(baseParts)-1)
			for i, label := range baseParts[1:] {
				if label == "" {
					labels[i] = "_"
				} else {
					labels[i] = label + ":"
				}
			}
			name += "(" + strings.Join(labels, " ") + ")"
		}
		parts := append([]string{module}, contexts...)
		parts = append(parts, name)
		return strings.Join(parts, "."), true
	}
	return module, true
}

func isContextKind(b byte) bool {
	switch b {
	case 'C', 'V', 'O', 'E', 'P', 'B', 'I', 'N', 'T', 'A', 'M', 'G':
		return true
	default:
		return false
	}
}

// identReader reads Swift's length-prefixed identifier form:
// <decimal length><that many bytes>.
type identReader struct {
	s   string
	pos int
}

func (p *identReader) readIdent() (string, bool) {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return "", false
	}
	length, err := strconv.Atoi(p.s[start:p.pos])
	if err != nil || length < 0 || p.pos+length > len(p.s) {
		return "", false
	}
	ident := p.s[p.pos : p.pos+length]
	p.pos += length
	return ident, true
}

// standardTypeAbbreviation decodes a standard-library substitution code:
// "S"+<letter> selects a well-known Swift type ("Si" -> Swift.Int, "SS" ->
// Swift.String, the doubled S being String's own code letter).
func standardTypeAbbreviation(code string) (string, bool) {
	if len(code) != 2 || code[0] != 'S' {
		return "", false
	}
	text, ok := swiftStandardTypes[string(code[1])]
	return text, ok
}

var swiftStandardTypes = map[string]string{
	"A": "Swift.AutoreleasingUnsafeMutablePointer",
	"B": "Swift.BinaryFloatingPoint",
	"D": "Swift.Dictionary",
	"E": "Swift.Encodable",
	"F": "Swift.FloatingPoint",
	"G": "Swift.RandomNumberGenerator",
	"H": "Swift.Hashable",
	"I": "Swift.DefaultIndices",
	"J": "Swift.Character",
	"K": "Swift.BidirectionalCollection",
	"L": "Swift.Comparable",
	"M": "Swift.MutableCollection",
	"N": "Swift.ClosedRange",
	"O": "Swift.ObjectIdentifier",
	"P": "Swift.UnsafePointer",
	"Q": "Swift.Equatable",
	"R": "Swift.UnsafeBufferPointer",
	"S": "Swift.String",
	"T": "Swift.Sequence",
	"U": "Swift.UnsignedInteger",
	"V": "Swift.UnsafeRawPointer",
	"W": "Swift.UnsafeRawBufferPointer",
	"X": "Swift.RangeExpression",
	"Y": "Swift.RawRepresentable",
	"Z": "Swift.SignedInteger",
	"a": "Swift.Array",
	"b": "Swift.Bool",
	"d": "Swift.Double",
	"e": "Swift.Decodable",
	"f": "Swift.Float",
	"h": "Swift.Set",
	"i": "Swift.Int",
	"j": "Swift.Numeric",
	"k": "Swift.RandomAccessCollection",
	"l": "Swift.Collection",
	"m": "Swift.RangeReplaceableCollection",
	"n": "Swift.Range",
	"p": "Swift.UnsafeMutablePointer",
	"q": "Swift.Optional",
	"r": "Swift.UnsafeMutableBufferPointer",
	"s": "Swift.Substring",
	"t": "Swift.IteratorProtocol",
	"u": "Swift.UInt",
	"v": "Swift.UnsafeMutableRawPointer",
	"w": "Swift.UnsafeMutableRawBufferPointer",
	"x": "Swift.Strideable",
	"y": "Swift.StringProtocol",
	"z": "Swift.BinaryInteger",
}
