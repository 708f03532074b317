package compilation

import (
	"fmt"

	"github.com/Masterminds/semver"
)

// evmVersionMinimumCompiler maps an EVM version name to the first solc release which accepts it.
var evmVersionMinimumCompiler = map[string]string{
	"homestead":        "0.4.0",
	"tangerineWhistle": "0.4.0",
	"spuriousDragon":   "0.4.0",
	"byzantium":        "0.4.21",
	"constantinople":   "0.4.21",
	"petersburg":       "0.5.5",
	"istanbul":         "0.5.13",
	"berlin":           "0.8.5",
	"london":           "0.8.7",
	"paris":            "0.8.18",
	"shanghai":         "0.8.20",
	"cancun":           "0.8.24",
}

// CheckEVMVersionSupport returns an error if the given compiler version predates the EVM version. Unknown EVM
// versions and an empty EVM version are left for the compiler to judge.
func CheckEVMVersionSupport(evmVersion string, compilerVersion *semver.Version) error {
	minimum, ok := evmVersionMinimumCompiler[evmVersion]
	if !ok || compilerVersion == nil {
		return nil
	}

	constraint, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		return err
	}
	if !constraint.Check(compilerVersion) {
		return fmt.Errorf("evm version '%s' requires compiler version %s or later, found %s", evmVersion, minimum, compilerVersion.String())
	}
	return nil
}
