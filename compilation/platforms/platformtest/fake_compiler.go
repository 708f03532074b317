// Package platformtest provides an in-process stand-in for a solc-compatible compiler, for use in tests that must not
// depend on a compiler being installed.
//
// The fake understands a tiny subset of Solidity: `import "<path>";` directives, `contract|library|interface <Name>`
// declarations and `function <name>(<type> <name>, ...)` signatures with elementary parameter types. Sources with
// unbalanced braces produce a ParserError diagnostic.
package platformtest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/Masterminds/semver"
	"github.com/crytic/solbuild/compilation/types"
	"golang.org/x/crypto/sha3"
	"golang.org/x/exp/slices"
)

var (
	importExp   = regexp.MustCompile(`import\s+"([^"]+)"\s*;`)
	contractExp = regexp.MustCompile(`(?:contract|library|interface)\s+(\w+)`)
	functionExp = regexp.MustCompile(`function\s+(\w+)\s*\(([^)]*)\)`)
)

// FakeCompiler implements the compiler boundary in-process, invoking the import callback directly for every import it
// cannot find among the submitted sources.
type FakeCompiler struct {
	// VersionString is the version reported by Version.
	VersionString string

	lock     sync.Mutex
	calls    int
	requests []*types.CompilationRequest
}

// NewFakeCompiler creates a FakeCompiler reporting version 0.8.19.
func NewFakeCompiler() *FakeCompiler {
	return &FakeCompiler{VersionString: "0.8.19"}
}

// Platform returns the identifier of the fake backend.
func (f *FakeCompiler) Platform() string {
	return "fake"
}

// Version returns VersionString parsed as a semantic version.
func (f *FakeCompiler) Version(ctx context.Context) (*semver.Version, error) {
	return semver.NewVersion(f.VersionString)
}

// Calls returns how many times CompileStandardJSON was invoked.
func (f *FakeCompiler) Calls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls
}

// Requests returns the final, import-resolved request of every compilation, in order.
func (f *FakeCompiler) Requests() []*types.CompilationRequest {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]*types.CompilationRequest(nil), f.requests...)
}

// CompileStandardJSON compiles the input, resolving missing imports through the callback.
func (f *FakeCompiler) CompileStandardJSON(ctx context.Context, input []byte, callback types.ImportCallback) ([]byte, error) {
	f.lock.Lock()
	f.calls++
	f.lock.Unlock()

	request, err := types.ParseCompilationRequest(input)
	if err != nil {
		return nil, err
	}

	// Resolve imports until every referenced unit is present
	var failures []types.Diagnostic
	for len(failures) == 0 {
		missing := MissingImports(request)
		if len(missing) == 0 {
			break
		}
		for _, importPath := range missing {
			result := callback(importPath)
			if result.Err != nil {
				failures = append(failures, notFoundDiagnostic(importPath, result.Err.Error()))
				break
			}
			request.AddSource(importPath, result.Contents)
		}
	}

	f.lock.Lock()
	f.requests = append(f.requests, request)
	f.lock.Unlock()

	if len(failures) > 0 {
		return json.Marshal(types.CompilationResult{Errors: failures})
	}
	return json.Marshal(compile(request))
}

// SimulateStandardJSON emulates a single run of `solc --standard-json` with no file system access: imports missing
// from the input are reported as `Source "X" not found` diagnostics, otherwise the sources are compiled.
func SimulateStandardJSON(input []byte) ([]byte, error) {
	request, err := types.ParseCompilationRequest(input)
	if err != nil {
		return nil, err
	}

	missing := MissingImports(request)
	if len(missing) > 0 {
		result := types.CompilationResult{}
		for _, importPath := range missing {
			result.Errors = append(result.Errors, notFoundDiagnostic(importPath, "File not supplied initially."))
		}
		return json.Marshal(result)
	}
	return json.Marshal(compile(request))
}

// MissingImports returns the sorted import unit names referenced by the request's sources that it does not contain.
func MissingImports(request *types.CompilationRequest) []string {
	missing := make([]string, 0)
	for sourceName, source := range request.Sources {
		for _, match := range importExp.FindAllStringSubmatch(source.Content, -1) {
			unitName := ImportUnitName(sourceName, match[1])
			if !request.HasSource(unitName) && !slices.Contains(missing, unitName) {
				missing = append(missing, unitName)
			}
		}
	}
	slices.Sort(missing)
	return missing
}

// ImportUnitName resolves an import path against the importing unit the way solc does: relative paths ("./", "../")
// are joined to the importer's directory, anything else is used as-is.
func ImportUnitName(importer string, importPath string) string {
	if strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../") {
		return path.Clean(path.Join(path.Dir(importer), importPath))
	}
	return importPath
}

func notFoundDiagnostic(importPath string, reason string) types.Diagnostic {
	message := fmt.Sprintf("Source %q not found: %s", importPath, reason)
	return types.Diagnostic{
		Severity:         types.SeverityError,
		Type:             "ParserError",
		Component:        "general",
		Message:          message,
		FormattedMessage: "ParserError: " + message,
	}
}

// compile produces contract outputs for every declaration in every source.
func compile(request *types.CompilationRequest) types.CompilationResult {
	result := types.CompilationResult{
		Sources:   make(map[string]types.SourceOutput),
		Contracts: make(map[string]map[string]types.ContractOutput),
	}

	sourceNames := make([]string, 0, len(request.Sources))
	for sourceName := range request.Sources {
		sourceNames = append(sourceNames, sourceName)
	}
	slices.Sort(sourceNames)

	for id, sourceName := range sourceNames {
		content := request.Sources[sourceName].Content
		result.Sources[sourceName] = types.SourceOutput{ID: id}

		if strings.Count(content, "{") != strings.Count(content, "}") {
			result.Errors = append(result.Errors, types.Diagnostic{
				Severity:       types.SeverityError,
				Type:           "ParserError",
				Component:      "general",
				Message:        "Expected '}' but got end of source",
				SourceLocation: &types.SourceLocation{File: sourceName, Start: len(content), End: len(content)},
			})
			continue
		}

		contracts := make(map[string]types.ContractOutput)
		declarations := contractExp.FindAllStringSubmatchIndex(content, -1)
		for i, declaration := range declarations {
			name := content[declaration[2]:declaration[3]]
			end := len(content)
			if i+1 < len(declarations) {
				end = declarations[i+1][0]
			}
			contracts[name] = compileContract(sourceName, name, content[declaration[0]:end], request.Settings)
		}
		result.Contracts[sourceName] = contracts
	}
	return result
}

// compileContract derives an ABI, selector mapping and deterministic bytecode object from a contract body.
func compileContract(sourceName string, name string, body string, settings types.CompilationSettings) types.ContractOutput {
	abiEntries := make([]map[string]any, 0)
	methodIdentifiers := make(map[string]string)
	for _, match := range functionExp.FindAllStringSubmatch(body, -1) {
		inputs := make([]map[string]any, 0)
		inputTypes := make([]string, 0)
		for i, param := range strings.Split(match[2], ",") {
			fields := strings.Fields(param)
			if len(fields) == 0 {
				continue
			}
			paramName := fmt.Sprintf("arg%d", i)
			if len(fields) > 1 {
				paramName = fields[len(fields)-1]
			}
			inputs = append(inputs, map[string]any{"name": paramName, "type": fields[0], "internalType": fields[0]})
			inputTypes = append(inputTypes, fields[0])
		}

		signature := fmt.Sprintf("%s(%s)", match[1], strings.Join(inputTypes, ","))
		hasher := sha3.NewLegacyKeccak256()
		hasher.Write([]byte(signature))
		methodIdentifiers[signature] = hex.EncodeToString(hasher.Sum(nil)[:4])

		abiEntries = append(abiEntries, map[string]any{
			"type":            "function",
			"name":            match[1],
			"inputs":          inputs,
			"outputs":         []any{},
			"stateMutability": "nonpayable",
		})
	}
	rawAbi, _ := json.Marshal(abiEntries)

	// The bytecode depends on everything that would influence real code generation
	digest := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%v|%d|%s", sourceName, name, body, settings.Optimizer.Enabled, settings.Optimizer.Runs, settings.EVMVersion)))
	return types.ContractOutput{
		Abi: rawAbi,
		Evm: types.EVMOutput{
			Bytecode:          types.BytecodeOutput{Object: "6080604052" + hex.EncodeToString(digest[:16])},
			MethodIdentifiers: methodIdentifiers,
		},
	}
}
