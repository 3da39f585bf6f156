package demangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemanglePlainIdentifierPassesThrough(t *testing.T) {
	readable, mangled := Demangle("engineSpeed")
	assert.Equal(t, "engineSpeed", readable)
	assert.Equal(t, "engineSpeed", mangled)
}

func TestDemangleItaniumSymbol(t *testing.T) {
	// _ZN3Foo3barE demangles to "Foo::bar".
	readable, mangled := Demangle("_ZN3Foo3barE")
	assert.Equal(t, "Foo::bar", readable)
	assert.Equal(t, "_ZN3Foo3barE", mangled)
}

func TestDemangleUnrecognizedItaniumPrefixFallsBackToOriginal(t *testing.T) {
	readable, mangled := Demangle("_Znotreallymangled")
	assert.Equal(t, "_Znotreallymangled", readable)
	assert.Equal(t, "_Znotreallymangled", mangled)
}

func TestDemangleMSVCQualifiedName(t *testing.T) {
	readable, mangled := Demangle("?bar@Foo@@3HA")
	assert.Equal(t, "Foo::bar", readable)
	assert.Equal(t, "?bar@Foo@@3HA", mangled)
}

func TestLooksMangledPrefixes(t *testing.T) {
	assert.True(t, looksMangled("_Zfoo"))
	assert.True(t, looksMangled("__Zfoo"))
	assert.True(t, looksMangled("?foo@@"))
	assert.False(t, looksMangled("plainName"))
}

func TestDemangleMSVCRejectsNonDecoratedName(t *testing.T) {
	_, ok := demangleMSVC("plainName")
	assert.False(t, ok)
}

func TestDemangleMSVCRejectsMissingSeparator(t *testing.T) {
	_, ok := demangleMSVC("?bar")
	assert.False(t, ok)
}
