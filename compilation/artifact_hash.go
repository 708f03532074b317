package compilation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/crytic/solbuild/compilation/types"
	"github.com/crytic/solbuild/logging"
	"github.com/crytic/solbuild/logging/colors"
	"github.com/crytic/solbuild/utils"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
	"golang.org/x/exp/slices"
)

// ArtifactHashDatabaseFileName is the name of the database file used to store artifact hashes.
const ArtifactHashDatabaseFileName = "solbuild-artifacts.db"

// artifactHashBucket is the bbolt bucket artifact hashes are stored in.
var artifactHashBucket = []byte("artifacts")

// ArtifactHashCache stores the hash of a compiled contract along with metadata.
type ArtifactHashCache struct {
	// Hash is the SHA-256 hash of the compiled contract.
	Hash string `json:"hash"`
	// Timestamp is when the hash was computed.
	Timestamp time.Time `json:"timestamp"`
}

// ComputeArtifactHash computes a SHA-256 hash over a contract's name, bytecode, and selector mapping. Selectors are
// hashed in sorted signature order so the hash is deterministic.
func ComputeArtifactHash(contractName string, contract *types.CompiledContract) string {
	hasher := sha256.New()
	hasher.Write([]byte(contractName))
	hasher.Write([]byte{0})
	hasher.Write([]byte(contract.Bytecode))

	signatures := make([]string, 0, len(contract.MethodIdentifiers))
	for signature := range contract.MethodIdentifiers {
		signatures = append(signatures, signature)
	}
	slices.Sort(signatures)
	for _, signature := range signatures {
		hasher.Write([]byte{0})
		hasher.Write([]byte(signature))
		hasher.Write([]byte{'='})
		hasher.Write([]byte(contract.MethodIdentifiers[signature]))
	}

	return hex.EncodeToString(hasher.Sum(nil))
}

// ArtifactHashStore persists the last artifact hash seen for each compiled contract in a bbolt database.
type ArtifactHashStore struct {
	db *bbolt.DB
}

// OpenArtifactHashStore opens (or creates) the artifact hash database within the given directory.
func OpenArtifactHashStore(directory string) (*ArtifactHashStore, error) {
	if err := utils.MakeDirectory(directory); err != nil {
		return nil, errors.Wrap(err, "failed to create artifact hash directory")
	}

	db, err := bbolt.Open(filepath.Join(directory, ArtifactHashDatabaseFileName), 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "could not open artifact hash database")
	}

	// create the bucket if it doesn't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(artifactHashBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.WithStack(err)
	}

	return &ArtifactHashStore{db: db}, nil
}

// Load returns the cached hash for a contract compiled from a directory, or nil if none was stored.
func (s *ArtifactHashStore) Load(directory string, contractName string) (*ArtifactHashCache, error) {
	var cache *ArtifactHashCache
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(artifactHashBucket).Get(artifactKey(directory, contractName))
		if data == nil {
			return nil
		}
		cache = &ArtifactHashCache{}
		return json.Unmarshal(data, cache)
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not load artifact hash")
	}
	return cache, nil
}

// Save stores the hash for a contract compiled from a directory.
func (s *ArtifactHashStore) Save(directory string, contractName string, cache *ArtifactHashCache) error {
	data, err := json.Marshal(cache)
	if err != nil {
		return errors.WithStack(err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(artifactHashBucket).Put(artifactKey(directory, contractName), data)
	})
}

// Close closes the underlying database.
func (s *ArtifactHashStore) Close() error {
	return s.db.Close()
}

// NotifyArtifactHashStatus compares the contract's current hash with the stored one and logs whether the artifact
// is new or unchanged. The stored hash is then updated.
func (s *ArtifactHashStore) NotifyArtifactHashStatus(directory string, contractName string, contract *types.CompiledContract, logger *logging.Logger) {
	currentHash := ComputeArtifactHash(contractName, contract)

	cachedHash, err := s.Load(directory, contractName)
	if err != nil {
		logger.Warn("Failed to load artifact hash", err)
	}

	if cachedHash == nil || cachedHash.Hash != currentHash {
		logger.Info(
			colors.Bold, "artifacts: ", colors.Reset,
			contractName, " compiled to a ", colors.GreenBold, "new", colors.Reset, " artifact",
		)
	} else {
		logger.Info(
			colors.Bold, "artifacts: ", colors.Reset,
			contractName, " compiled to the ", colors.YellowBold, "same", colors.Reset,
			" artifact as previously (last build: ", formatDuration(time.Since(cachedHash.Timestamp)), " ago)",
		)
	}

	newCache := &ArtifactHashCache{
		Hash:      currentHash,
		Timestamp: time.Now(),
	}
	if err := s.Save(directory, contractName, newCache); err != nil {
		logger.Warn("Failed to save artifact hash", err)
	}
}

// artifactKey returns the database key for a contract compiled from a directory.
func artifactKey(directory string, contractName string) []byte {
	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		absDirectory = filepath.Clean(directory)
	}
	return []byte(absDirectory + string(filepath.Separator) + contractName)
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
