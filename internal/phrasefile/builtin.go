package phrasefile

import (
	"fmt"
	"sort"

	"github.com/leandrodaf/notekeys/sdk/contracts"
)

// Alert is the phrase played when the trigger fires.
func Alert() contracts.Phrase {
	return contracts.NewPhrase(172,
		contracts.Audible(67, 1.5),
		contracts.Audible(67, 1.5),
		contracts.Audible(70, 1.0),
		contracts.Audible(72, 1.0),
		contracts.Audible(67, 1.5),
		contracts.Audible(67, 1.5),
	)
}

var builtins = map[string]func() contracts.Phrase{
	"alert": Alert,
}

// Builtin returns a phrase shipped with the program.
func Builtin(name string) (contracts.Phrase, error) {
	if f, ok := builtins[name]; ok {
		return f(), nil
	}
	return contracts.Phrase{}, fmt.Errorf("%w: no built-in phrase %q (available: %v)", contracts.ErrInvalidPhrase, name, BuiltinNames())
}

// BuiltinNames lists the built-in phrase names in order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve loads path when it is set and falls back to the named built-in.
func Resolve(path, builtin string) (contracts.Phrase, error) {
	if path != "" {
		return Load(path)
	}
	return Builtin(builtin)
}
