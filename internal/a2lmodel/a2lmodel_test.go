package a2lmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemListInsertGetRemove(t *testing.T) {
	l := NewItemList[Characteristic]()
	l.Insert("A", &Characteristic{Name: "A"})
	l.Insert("B", &Characteristic{Name: "B"})
	l.Insert("C", &Characteristic{Name: "C"})

	require.Equal(t, 3, l.Len())
	names := func() []string {
		var out []string
		for _, c := range l.All() {
			out = append(out, c.Name)
		}
		return out
	}
	assert.Equal(t, []string{"A", "B", "C"}, names())

	got, ok := l.Get("B")
	require.True(t, ok)
	assert.Equal(t, "B", got.Name)

	l.Remove("B")
	assert.Equal(t, []string{"A", "C"}, names())
	_, ok = l.Get("B")
	assert.False(t, ok)
}

func TestItemListInsertPreservesPositionOnReplace(t *testing.T) {
	l := NewItemList[Characteristic]()
	l.Insert("A", &Characteristic{Name: "A", Address: 1})
	l.Insert("B", &Characteristic{Name: "B"})
	l.Insert("A", &Characteristic{Name: "A", Address: 2})

	all := l.All()
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Name)
	assert.EqualValues(t, 2, all[0].Address)
}

func TestCompuMethodForwardTransform(t *testing.T) {
	tests := []struct {
		name      string
		method    CompuMethod
		lower     float64
		upper     float64
		wantLower float64
		wantUpper float64
	}{
		{
			name:      "linear scales and offsets",
			method:    CompuMethod{Kind: CompuLinear, Coefficients: []float64{2, 10}},
			lower:     0,
			upper:     100,
			wantLower: 10,
			wantUpper: 210,
		},
		{
			name:      "linear with negative slope reorders bounds",
			method:    CompuMethod{Kind: CompuLinear, Coefficients: []float64{-1, 0}},
			lower:     0,
			upper:     100,
			wantLower: -100,
			wantUpper: 0,
		},
		{
			name:      "non-linear without declared inverse leaves limits untouched",
			method:    CompuMethod{Kind: CompuRatFunc},
			lower:     5,
			upper:     50,
			wantLower: 5,
			wantUpper: 50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.method.ForwardTransform(tt.lower, tt.upper)
			assert.Equal(t, tt.wantLower, lo)
			assert.Equal(t, tt.wantUpper, hi)
		})
	}
}

func TestCleanupRemovedCharacteristics(t *testing.T) {
	m := NewModule()
	m.Groups.Insert("G1", &Group{Name: "G1", RefCharacteristic: []string{"A", "B", "C"}})
	m.Functions.Insert("F1", &Function{
		Name:              "F1",
		DefCharacteristic: []string{"A", "D"},
		RefCharacteristic: []string{"B"},
	})

	CleanupRemovedCharacteristics(m, map[string]bool{"A": true, "B": true})

	g, _ := m.Groups.Get("G1")
	assert.Equal(t, []string{"C"}, g.RefCharacteristic)

	f, _ := m.Functions.Get("F1")
	assert.Equal(t, []string{"D"}, f.DefCharacteristic)
	assert.Empty(t, f.RefCharacteristic)
}

func TestCleanupRemovedCharacteristicsScrubsDependentCharacteristic(t *testing.T) {
	m := NewModule()
	m.Characteristics.Insert("Computed", &Characteristic{
		Name:                  "Computed",
		VirtualCharacteristic: true,
		Dependent: &DependentCharacteristic{
			Formula:           "X1 + X2",
			RefCharacteristic: []string{"A", "B", "C"},
		},
	})

	CleanupRemovedCharacteristics(m, map[string]bool{"A": true, "B": true})

	c, _ := m.Characteristics.Get("Computed")
	assert.Equal(t, []string{"C"}, c.Dependent.RefCharacteristic)
}

func TestCleanupRemovedCharacteristicsNoOpWhenEmpty(t *testing.T) {
	m := NewModule()
	m.Groups.Insert("G1", &Group{Name: "G1", RefCharacteristic: []string{"A"}})
	CleanupRemovedCharacteristics(m, nil)
	g, _ := m.Groups.Get("G1")
	assert.Equal(t, []string{"A"}, g.RefCharacteristic)
}
