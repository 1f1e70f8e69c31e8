package evaluator

import (
	"sort"
	"sync"
)

// extNativeRegistry holds native modules contributed by host packages.
// Every interpreter created after registration installs them.
//
// Registration normally happens from init functions; reads happen from
// NewInterpreter, possibly on several goroutines.
var extNativeRegistry = struct {
	mu       sync.RWMutex
	registry map[string][]NativeDef
}{
	registry: make(map[string][]NativeDef),
}

// RegisterExtNatives registers the natives of a host module under name.
// Registering the same name again replaces the earlier set.
func RegisterExtNatives(name string, defs []NativeDef) {
	extNativeRegistry.mu.Lock()
	defer extNativeRegistry.mu.Unlock()
	extNativeRegistry.registry[name] = defs
}

// GetExtNatives returns the natives registered under name, or nil.
func GetExtNatives(name string) []NativeDef {
	extNativeRegistry.mu.RLock()
	defer extNativeRegistry.mu.RUnlock()
	return extNativeRegistry.registry[name]
}

// GetAllExtModules returns the registered module names, sorted.
func GetAllExtModules() []string {
	extNativeRegistry.mu.RLock()
	defer extNativeRegistry.mu.RUnlock()
	names := make([]string, 0, len(extNativeRegistry.registry))
	for name := range extNativeRegistry.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// extNativeModules returns every registered module's natives in name
// order, so installation is deterministic.
func extNativeModules() [][]NativeDef {
	names := GetAllExtModules()
	out := make([][]NativeDef, 0, len(names))
	for _, name := range names {
		out = append(out, GetExtNatives(name))
	}
	return out
}
