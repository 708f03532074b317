package sources

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOSReader ensures files are read from disk and missing files report fs.ErrNotExist.
func TestOSReader(t *testing.T) {
	directory := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(directory, "A.sol"), []byte("contract A {}"), 0644))

	reader := NewOSReader()
	content, err := reader.ReadSource(filepath.Join(directory, "sub", "..", "A.sol"))
	require.NoError(t, err)
	assert.Equal(t, "contract A {}", content)

	_, err = reader.ReadSource(filepath.Join(directory, "B.sol"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

// TestMemoryReader ensures paths are cleaned consistently and reads are recorded.
func TestMemoryReader(t *testing.T) {
	reader := NewMemoryReader(map[string]string{
		"/project/node_modules/lib/Math.sol": "library Math {}",
	})

	content, err := reader.ReadSource("/project/contracts/../node_modules/lib/Math.sol")
	require.NoError(t, err)
	assert.Equal(t, "library Math {}", content)

	_, err = reader.ReadSource("/project/contracts/Missing.sol")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	assert.Equal(t, []string{
		filepath.Clean("/project/node_modules/lib/Math.sol"),
		filepath.Clean("/project/contracts/Missing.sol"),
	}, reader.Reads())
}
