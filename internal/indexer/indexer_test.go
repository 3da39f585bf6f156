package indexer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadMissingBinaryReturnsWrappedError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.elf"), Options{}, nil)
	assert.Error(t, err)
}

func TestLoadMissingPDBReturnsWrappedError(t *testing.T) {
	_, err := Load("unused", Options{PDBPath: filepath.Join(t.TempDir(), "does-not-exist.pdb")}, nil)
	assert.Error(t, err)
}

func TestLoadPrefersPDBPathOverBinPath(t *testing.T) {
	// A bogus binPath must never be opened when PDBPath is set; the error
	// returned should come from the PDB reader, not binloader.
	_, err := Load(filepath.Join(t.TempDir(), "not-a-real-binary"), Options{PDBPath: filepath.Join(t.TempDir(), "missing.pdb")}, nil)
	assert.Error(t, err)
}
