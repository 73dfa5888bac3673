package av

import (
	"sort"
	"strings"
)

// Metadata is a case-insensitive tag dictionary. Keys are stored upper-cased.
type Metadata map[string]string

// Set stores value under key, appending with ";" when the key already exists.
func (m Metadata) Set(key, value string) {
	key = strings.ToUpper(key)
	if old, ok := m[key]; ok {
		m[key] = old + ";" + value
		return
	}
	m[key] = value
}

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[strings.ToUpper(key)]
	return v, ok
}

// Keys returns the stored keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
