package types

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor"
)

// ContractMetadata is the CBOR map solc appends to the end of contract bytecode (unless told not to). It holds the
// source metadata hash and the compiler version.
// Reference: https://docs.soliditylang.org/en/latest/metadata.html
type ContractMetadata map[string]any

// metadataHashPrefixes are the leading bytes of the CBOR map for each metadata layout solc has emitted.
var metadataHashPrefixes = [][]byte{
	{0xa1, 0x65, 'b', 'z', 'z', 'r', '0', 0x58, 0x20}, // {"bzzr0": bytes32} (solc <= 0.5.8)
	{0xa2, 0x65, 'b', 'z', 'z', 'r', '0', 0x58, 0x20}, // {"bzzr0": bytes32, "solc": ...} (solc >= 0.5.9)
	{0xa2, 0x65, 'b', 'z', 'z', 'r', '1', 0x58, 0x20}, // {"bzzr1": bytes32, "solc": ...} (solc >= 0.5.11)
	{0xa2, 0x64, 'i', 'p', 'f', 's', 0x58, 0x22},      // {"ipfs": bytes34, "solc": ...} (solc >= 0.6.0)
}

// metadataHashKeys are the map keys under which a metadata layout stores the source metadata hash.
var metadataHashKeys = []string{"bzzr0", "bzzr1", "ipfs"}

// ExtractContractMetadata decodes the metadata appended to bytecode. Returns nil if none could be found.
func ExtractContractMetadata(bytecode []byte) *ContractMetadata {
	for _, prefix := range metadataHashPrefixes {
		offset := bytes.LastIndex(bytecode, prefix)
		if offset == -1 {
			continue
		}

		var metadata ContractMetadata
		if err := cbor.Unmarshal(bytecode[offset:], &metadata); err != nil {
			continue
		}
		return &metadata
	}
	return nil
}

// CompilerVersion returns the compiler version recorded under the "solc" key, formatted as "major.minor.patch".
// Releases encode it as three raw bytes, prereleases as a full version string. Returns an empty string if no version
// was recorded.
func (m ContractMetadata) CompilerVersion() string {
	switch version := m["solc"].(type) {
	case []byte:
		if len(version) == 3 {
			return fmt.Sprintf("%d.%d.%d", version[0], version[1], version[2])
		}
	case string:
		return version
	}
	return ""
}

// ExtractBytecodeHash returns the source metadata hash, or nil if none is recorded.
func (m ContractMetadata) ExtractBytecodeHash() []byte {
	for _, key := range metadataHashKeys {
		if hash, ok := m[key].([]byte); ok {
			return hash
		}
	}
	return nil
}
