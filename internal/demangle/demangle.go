// Package demangle recovers human-readable symbol names from the mangled
// forms C++ (Itanium ABI) and MSVC compilers emit. Demangling is applied
// only to the variable symbol name, never to individual struct member
// names, per spec.md §4.2.
package demangle

import (
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// Demangle attempts Itanium and then MSVC demangling of name. It returns
// (demangled, original): if demangling succeeds and differs from the
// input, demangled is the human-readable form and original is the
// mangled form, so the reader can register the symbol under both keys
// (spec.md §4.2: "A symbol whose demangled form still contains unresolved
// template punctuation is kept under both mangled and demangled keys").
// If name was never mangled (a plain C identifier), both return values
// equal name.
func Demangle(name string) (readable, mangled string) {
	if !looksMangled(name) {
		return name, name
	}

	if out, err := demangle.ToString(name, demangle.NoClones); err == nil && out != name {
		return out, name
	}
	if out, ok := demangleMSVC(name); ok {
		return out, name
	}
	return name, name
}

// looksMangled is a cheap prefilter: Itanium names start with "_Z" (or
// "__Z" on some Mach-O-derived toolchains), MSVC decorated names start
// with "?". Anything else is assumed to already be a plain identifier, so
// we never pay for a demangle attempt on the common case.
func looksMangled(name string) bool {
	return strings.HasPrefix(name, "_Z") || strings.HasPrefix(name, "__Z") || strings.HasPrefix(name, "?")
}

// demangleMSVC handles the common case of a decorated MSVC data symbol
// name well enough to recover a readable qualified name. Full MSVC name
// decoration (calling convention, cv-qualifiers, template argument lists)
// is not implemented: no mature pure-Go MSVC demangler exists in the
// retrieved corpus, so this is a best-effort normalizer rather than a
// real decoder, and is documented as a standard-library-only piece in
// DESIGN.md.
func demangleMSVC(name string) (string, bool) {
	if !strings.HasPrefix(name, "?") {
		return "", false
	}
	end := strings.Index(name[1:], "@@")
	if end < 0 {
		return "", false
	}
	// "?x@Foo@Bar@@..." names Bar::Foo::x: the segments before the first
	// "@@" are the symbol name followed by its enclosing scopes, innermost
	// first; the type encoding after "@@" is dropped.
	segs := strings.Split(name[1:end+1], "@")
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "::"), true
}
