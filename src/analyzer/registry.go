package analyzer

import (
	"fmt"
	"sort"

	"scanner111/src/logger"
)

// Factory builds an Analyzer instance given a logger.
type Factory func(log logger.Logger) Analyzer

var registry = make(map[string]Factory)

// Register adds a named analyzer factory to the registry. Intended to be
// called from package-level init() functions, mirroring the source tool's
// explicit provider-registration idiom rather than reflection-based
// auto-discovery.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Build instantiates every registered analyzer, ordered by Priority
// (ascending; ties broken by analyzer name, since registration order is not
// recorded).
func Build(log logger.Logger) ([]Analyzer, error) {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	analyzers := make([]Analyzer, 0, len(names))
	for _, name := range names {
		a := registry[name](log)
		if a.Name() != name {
			return nil, fmt.Errorf("analyzer: registry key %q does not match Analyzer.Name() %q", name, a.Name())
		}
		analyzers = append(analyzers, a)
	}

	sort.SliceStable(analyzers, func(i, j int) bool {
		return analyzers[i].Priority() < analyzers[j].Priority()
	})

	return analyzers, nil
}

// Names returns the sorted list of registered analyzer names. Exposed for
// tests and for the MCP tool surface's introspection needs.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
