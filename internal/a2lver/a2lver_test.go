package a2lver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTwoFieldVersion(t *testing.T) {
	v, err := Parse("1.6")
	require.NoError(t, err)
	assert.Equal(t, "1.6.0", v.String())
}

func TestParseThreeFieldVersion(t *testing.T) {
	v, err := Parse("1.7.1")
	require.NoError(t, err)
	assert.Equal(t, "1.7.1", v.String())
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not-a-version")
	assert.Error(t, err)
}

func TestAtLeastOrdering(t *testing.T) {
	assert.True(t, V1_7_1.AtLeast(V1_7_0))
	assert.True(t, V1_7_0.AtLeast(V1_6_0))
	assert.False(t, V1_6_0.AtLeast(V1_7_0))
	assert.True(t, V1_6_0.AtLeast(V1_6_0))
}

func TestSupportsStructures(t *testing.T) {
	assert.False(t, V1_7_0.SupportsStructures())
	assert.True(t, V1_7_1.SupportsStructures())
}

func TestSupportsNewArrayNotation(t *testing.T) {
	assert.False(t, V1_6_0.SupportsNewArrayNotation())
	assert.True(t, V1_7_0.SupportsNewArrayNotation())
}
