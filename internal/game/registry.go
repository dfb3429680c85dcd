package game

import (
	"fmt"
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	adapters = map[string]Adapter{}
)

func Register(adapter Adapter) {
	mu.Lock()
	defer mu.Unlock()
	adapters[adapter.Game()] = adapter
}

func Get(game string) (Adapter, error) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := adapters[game]
	if !ok {
		return nil, fmt.Errorf("unknown game %q (known: %v)", game, names())
	}
	return a, nil
}

func names() []string {
	result := make([]string, 0, len(adapters))
	for k := range adapters {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}
