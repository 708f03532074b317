package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"golang.org/x/crypto/sha3"
	"golang.org/x/exp/slices"
)

// libraryPlaceholderExp matches unlinked library placeholders of the form "__$<hash>$__" (solc >= 0.5.0) or
// "__<name>__" (older compilers).
var libraryPlaceholderExp = regexp.MustCompile(`__(\$[0-9a-zA-Z]*\$|\w*)__`)

// CompiledContract represents the artifact of a single compiled contract: its interface description, its creation
// bytecode object and its function selector mapping.
type CompiledContract struct {
	// Abi describes a contract's application binary interface, a structure used to describe information needed
	// to interact with the contract such as constructor and function definitions with input/output variable
	// information, event declarations, and fallback and receive methods.
	Abi abi.ABI

	// RawAbi is the interface description exactly as emitted by the compiler.
	RawAbi json.RawMessage

	// Bytecode is the hex-encoded creation bytecode object. It may contain unlinked library placeholders.
	Bytecode string

	// MethodIdentifiers maps function signatures to their 4-byte selectors, hex-encoded without prefix.
	MethodIdentifiers map[string]string

	// LibraryPlaceholders maps placeholder strings to library names (if known)
	// Format is map[placeholder]libraryName
	// When a contract has placeholders, these need to be resolved before deployment
	LibraryPlaceholders map[string]any
}

// NewCompiledContract converts a compiler ContractOutput into a CompiledContract, parsing its ABI.
func NewCompiledContract(output ContractOutput) (*CompiledContract, error) {
	rawAbi := output.Abi
	if len(rawAbi) == 0 || string(rawAbi) == "null" {
		rawAbi = json.RawMessage("[]")
	}

	contractAbi, err := ParseABIFromInterface(rawAbi)
	if err != nil {
		return nil, fmt.Errorf("could not parse contract ABI: %v", err)
	}

	methodIdentifiers := make(map[string]string, len(output.Evm.MethodIdentifiers))
	for signature, identifier := range output.Evm.MethodIdentifiers {
		methodIdentifiers[signature] = identifier
	}

	return &CompiledContract{
		Abi:                 *contractAbi,
		RawAbi:              rawAbi,
		Bytecode:            output.Evm.Bytecode.Object,
		MethodIdentifiers:   methodIdentifiers,
		LibraryPlaceholders: ParseBytecodeForPlaceholders(output.Evm.Bytecode.Object),
	}, nil
}

// ParseABIFromInterface parses a generic object into an abi.ABI and returns it, or an error if one occurs.
func ParseABIFromInterface(i any) (*abi.ABI, error) {
	var (
		result abi.ABI
		err    error
	)

	// Strings and raw JSON are parsed directly. Anything else is serialized first.
	switch t := i.(type) {
	case string:
		result, err = abi.JSON(strings.NewReader(t))
	case json.RawMessage:
		result, err = abi.JSON(strings.NewReader(string(t)))
	default:
		var b []byte
		b, err = json.Marshal(i)
		if err != nil {
			return nil, err
		}
		result, err = abi.JSON(strings.NewReader(string(b)))
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ContractOutput converts the contract back into the compiler's per-contract output layout.
func (c CompiledContract) ContractOutput() ContractOutput {
	rawAbi := c.RawAbi
	if len(rawAbi) == 0 {
		rawAbi = json.RawMessage("[]")
	}
	return ContractOutput{
		Abi: rawAbi,
		Evm: EVMOutput{
			Bytecode:          BytecodeOutput{Object: c.Bytecode},
			MethodIdentifiers: c.MethodIdentifiers,
		},
	}
}

// MarshalJSON serializes the contract in the compiler's per-contract output layout. Map keys are sorted, so equal
// contracts always serialize to identical bytes.
func (c CompiledContract) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ContractOutput())
}

// UnmarshalJSON parses a contract serialized in the compiler's per-contract output layout.
func (c *CompiledContract) UnmarshalJSON(b []byte) error {
	var output ContractOutput
	if err := json.Unmarshal(b, &output); err != nil {
		return err
	}
	contract, err := NewCompiledContract(output)
	if err != nil {
		return err
	}
	*c = *contract
	return nil
}

// IsLinked indicates whether the bytecode object is free of library placeholders.
func (c *CompiledContract) IsLinked() bool {
	return len(c.LibraryPlaceholders) == 0
}

// InitBytecodeBytes decodes the hex bytecode object. An error is returned if the bytecode still contains unlinked
// library placeholders.
func (c *CompiledContract) InitBytecodeBytes() ([]byte, error) {
	if !c.IsLinked() {
		return nil, fmt.Errorf("bytecode contains %d unlinked library placeholder(s)", len(c.LibraryPlaceholders))
	}
	return hex.DecodeString(strings.TrimPrefix(c.Bytecode, "0x"))
}

// Metadata extracts the CBOR-encoded contract metadata the compiler appends to the bytecode. Unlinked placeholders are
// treated as zero addresses for this purpose. Returns nil if no metadata could be found.
func (c *CompiledContract) Metadata() *ContractMetadata {
	bytecodeHex := libraryPlaceholderExp.ReplaceAllStringFunc(strings.TrimPrefix(c.Bytecode, "0x"), func(s string) string {
		return strings.Repeat("0", len(s))
	})
	bytecode, err := hex.DecodeString(bytecodeHex)
	if err != nil {
		return nil
	}
	return ExtractContractMetadata(bytecode)
}

// VerifyMethodIdentifiers checks that every selector in MethodIdentifiers is the keccak256 prefix of its signature and
// that every function in the ABI appears in the mapping with a matching selector.
func (c *CompiledContract) VerifyMethodIdentifiers() error {
	// Check signatures in a stable order so the first reported mismatch is deterministic
	signatures := make([]string, 0, len(c.MethodIdentifiers))
	for signature := range c.MethodIdentifiers {
		signatures = append(signatures, signature)
	}
	slices.Sort(signatures)

	for _, signature := range signatures {
		expected := hex.EncodeToString(keccak256([]byte(signature))[:4])
		if !strings.EqualFold(expected, c.MethodIdentifiers[signature]) {
			return fmt.Errorf("selector for '%s' is %s but its signature hashes to %s", signature, c.MethodIdentifiers[signature], expected)
		}
	}

	for _, method := range c.Abi.Methods {
		identifier, ok := c.MethodIdentifiers[method.Sig]
		if !ok {
			return fmt.Errorf("function '%s' from the ABI is missing from the selector mapping", method.Sig)
		}
		if !strings.EqualFold(identifier, hex.EncodeToString(method.ID)) {
			return fmt.Errorf("selector for '%s' is %s but the ABI declares %x", method.Sig, identifier, method.ID)
		}
	}
	return nil
}

// LinkBytecode replaces library placeholders in the bytecode object with deployed library addresses. Libraries are
// keyed by their fully qualified name ("<source>:<library>"), from which solc derives the placeholder. Placeholders
// for libraries that are not provided remain in the bytecode.
func (c *CompiledContract) LinkBytecode(deployedLibraries map[string]common.Address) {
	if c.IsLinked() {
		return
	}

	// Associate each known placeholder with the library it stands for
	for libraryName := range deployedLibraries {
		placeholder := LibraryPlaceholder(libraryName)
		if _, exists := c.LibraryPlaceholders[placeholder]; exists {
			c.LibraryPlaceholders[placeholder] = libraryName
		}
	}

	c.Bytecode = getLinkedBytecode(c.LibraryPlaceholders, c.Bytecode, deployedLibraries)

	// Whatever remains in the bytecode is still unlinked
	c.LibraryPlaceholders = ParseBytecodeForPlaceholders(c.Bytecode)
}

// LibraryPlaceholder returns the placeholder identifier solc emits for a fully qualified library name: the first 34
// hex characters of the keccak256 hash of the name.
func LibraryPlaceholder(fullyQualifiedName string) string {
	return hex.EncodeToString(keccak256([]byte(fullyQualifiedName)))[:34]
}

// ParseBytecodeForPlaceholders analyzes the given bytecode string to identify and extract
// all library placeholder patterns embedded within it.
//
// Returns a map where keys are the extracted placeholder identifiers (without the "__" and "$" delimiters) and values
// are nil. Values are populated with library names when linking is performed.
func ParseBytecodeForPlaceholders(bytecode string) map[string]any {
	substringSet := make(map[string]any)

	// Identify all unique library substrings
	for _, substring := range libraryPlaceholderExp.FindAllString(bytecode, -1) {
		// Strip all `_` and `$` from the substring
		substring = strings.ReplaceAll(strings.ReplaceAll(substring, "_", ""), "$", "")
		if _, exists := substringSet[substring]; !exists {
			substringSet[substring] = nil
		}
	}

	return substringSet
}

// getLinkedBytecode performs the replacement of "__$<placeholder>$__" patterns with the addresses of deployed
// libraries. Placeholders whose library name is unknown or not deployed are left untouched.
func getLinkedBytecode(libraryPlaceholders map[string]any, bytecode string, deployedLibraries map[string]common.Address) string {
	for placeholder, libNameAny := range libraryPlaceholders {
		libName, ok := libNameAny.(string)
		if !ok || libName == "" {
			continue
		}

		libraryAddr, exists := deployedLibraries[libName]
		if !exists {
			continue
		}

		// Address hex without the "0x" prefix is exactly 40 characters, the width of a placeholder
		addrHex := strings.ToLower(libraryAddr.Hex()[2:])
		bytecode = strings.ReplaceAll(bytecode, fmt.Sprintf("__$%s$__", placeholder), addrHex)
	}
	return bytecode
}

// keccak256 returns the legacy Keccak-256 digest used throughout the EVM.
func keccak256(data []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	return hasher.Sum(nil)
}
