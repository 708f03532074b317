package compilation

import (
	"testing"
	"time"

	"github.com/crytic/solbuild/compilation/types"
	"github.com/crytic/solbuild/logging"
	"github.com/stretchr/testify/assert"
)

// TestComputeArtifactHash ensures the hash is deterministic and sensitive to the contract's contents.
func TestComputeArtifactHash(t *testing.T) {
	contract := &types.CompiledContract{
		Bytecode:          "6080604052",
		MethodIdentifiers: map[string]string{"a()": "0dbe671f", "b()": "4df7e3d0"},
	}

	hash := ComputeArtifactHash("Token", contract)
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, ComputeArtifactHash("Token", contract))
	assert.NotEqual(t, hash, ComputeArtifactHash("Coin", contract))

	changed := &types.CompiledContract{Bytecode: "6080604053", MethodIdentifiers: contract.MethodIdentifiers}
	assert.NotEqual(t, hash, ComputeArtifactHash("Token", changed))
}

// TestArtifactHashStore ensures hashes persist across reopening the store and are keyed per contract.
func TestArtifactHashStore(t *testing.T) {
	directory := t.TempDir()
	store, err := OpenArtifactHashStore(directory)
	assert.NoError(t, err)

	cache, err := store.Load(contractsDirectory, "Token")
	assert.NoError(t, err)
	assert.Nil(t, cache)

	saved := &ArtifactHashCache{Hash: "abc", Timestamp: time.Now().Truncate(time.Second)}
	assert.NoError(t, store.Save(contractsDirectory, "Token", saved))
	assert.NoError(t, store.Close())

	store, err = OpenArtifactHashStore(directory)
	assert.NoError(t, err)
	defer store.Close()

	cache, err = store.Load(contractsDirectory, "Token")
	assert.NoError(t, err)
	assert.Equal(t, "abc", cache.Hash)
	assert.True(t, saved.Timestamp.Equal(cache.Timestamp))

	cache, err = store.Load(contractsDirectory, "Coin")
	assert.NoError(t, err)
	assert.Nil(t, cache)

	// Notifying stores the current hash
	contract := &types.CompiledContract{Bytecode: "6080", MethodIdentifiers: map[string]string{}}
	store.NotifyArtifactHashStatus(contractsDirectory, "Coin", contract, logging.GlobalLogger)
	cache, err = store.Load(contractsDirectory, "Coin")
	assert.NoError(t, err)
	assert.Equal(t, ComputeArtifactHash("Coin", contract), cache.Hash)
}

// TestFormatDuration ensures durations are rendered in their largest whole unit.
func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42 seconds", formatDuration(42*time.Second))
	assert.Equal(t, "1 minute", formatDuration(time.Minute))
	assert.Equal(t, "5 minutes", formatDuration(5*time.Minute))
	assert.Equal(t, "1 hour", formatDuration(time.Hour))
	assert.Equal(t, "3 days", formatDuration(72*time.Hour))
}
