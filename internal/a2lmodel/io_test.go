package a2lmodel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielT/a2ltool/internal/a2ldatatype"
)

func TestSaveLoadJSONRoundTrip(t *testing.T) {
	m := NewModule()
	m.Measurements.Insert("EngineSpeed", &Measurement{
		Name:       "EngineSpeed",
		Datatype:   a2ldatatype.Uword,
		Address:    0x1000,
		AddressHex: true,
		Conversion: "NO_COMPU_METHOD",
	})
	m.Characteristics.Insert("Offset", &Characteristic{
		Name:       "Offset",
		Kind:       KindValue,
		Address:    0x2000,
		Conversion: "NO_COMPU_METHOD",
	})
	m.Groups.Insert("Calibration", &Group{
		Name:              "Calibration",
		RefCharacteristic: []string{"Offset"},
	})

	path := filepath.Join(t.TempDir(), "module.json")
	require.NoError(t, SaveJSON(path, m))

	loaded, err := LoadJSON(path)
	require.NoError(t, err)

	assert.Equal(t, 1, loaded.Measurements.Len())
	assert.Equal(t, 1, loaded.Characteristics.Len())

	meas, ok := loaded.Measurements.Get("EngineSpeed")
	require.True(t, ok)
	assert.Equal(t, uint32(0x1000), meas.Address)
	assert.True(t, meas.AddressHex)

	grp, ok := loaded.Groups.Get("Calibration")
	require.True(t, ok)
	assert.Equal(t, []string{"Offset"}, grp.RefCharacteristic)
}

func TestLoadJSONMissingFile(t *testing.T) {
	_, err := LoadJSON(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}
