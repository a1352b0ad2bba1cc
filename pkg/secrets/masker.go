// Package secrets masks credential values in text shown to users.
package secrets

import (
	"sort"
	"strings"
	"sync"
)

// Mask is the replacement for a masked value.
const Mask = "***"

// minSecretLength keeps very short values (such as "1" or "on") from
// mangling unrelated output.
const minSecretLength = 4

// Masker replaces registered secret values in strings. It is safe for
// concurrent use.
type Masker struct {
	mu       sync.RWMutex
	patterns []string
	secrets  map[string]struct{}
}

// NewMasker creates a masker that also recognizes environment variables
// whose names end in a secret-like suffix or start with NTFY_SECRET_.
func NewMasker() *Masker {
	return &Masker{
		patterns: []string{
			"_TOKEN",
			"_SECRET",
			"_KEY",
			"_PASSWORD",
			"_PASS",
		},
		secrets: make(map[string]struct{}),
	}
}

// AddSecret registers values to be masked. Empty and very short values are
// ignored.
func (m *Masker) AddSecret(values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		if len(v) >= minSecretLength {
			m.secrets[v] = struct{}{}
		}
	}
}

// AddSecretsFromEnv registers the values of secret-looking variables from
// environ, given in os.Environ form.
func (m *Masker) AddSecretsFromEnv(environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if ok && m.isSecretKey(key) {
			m.AddSecret(value)
		}
	}
}

func (m *Masker) isSecretKey(key string) bool {
	upper := strings.ToUpper(key)
	if strings.HasPrefix(upper, "NTFY_SECRET_") {
		return true
	}
	for _, pattern := range m.patterns {
		if strings.HasSuffix(upper, pattern) {
			return true
		}
	}
	return false
}

// Mask replaces every registered secret in s with Mask. Longer secrets are
// replaced first so a secret containing another is fully hidden.
func (m *Masker) Mask(s string) string {
	m.mu.RLock()
	values := make([]string, 0, len(m.secrets))
	for v := range m.secrets {
		values = append(values, v)
	}
	m.mu.RUnlock()

	sort.Slice(values, func(i, j int) bool { return len(values[i]) > len(values[j]) })
	for _, v := range values {
		s = strings.ReplaceAll(s, v, Mask)
	}
	return s
}

// MaskValue masks strings inside maps and slices decoded from JSON. Other
// values are returned unchanged.
func (m *Masker) MaskValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return m.Mask(val)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = m.MaskValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = m.MaskValue(item)
		}
		return out
	default:
		return v
	}
}
