// Package featureflags evaluates runtime feature switches.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Known flags.
const (
	// MarkdownComments renders comment content as Markdown before sanitizing it.
	MarkdownComments = "markdown_comments"
	// VoteRateLimit throttles vote casting per user.
	VoteRateLimit = "vote_rate_limit"
)

// defaults apply when the configuration does not mention a flag.
var defaults = map[string]string{
	MarkdownComments: "off",
	VoteRateLimit:    "on",
}

// Manager evaluates feature flags defined in a key=value list such as
// "markdown_comments=on,vote_rate_limit=25%".
type Manager struct {
	mu    sync.RWMutex
	flags map[string]string
}

// NewManager creates a manager from a comma-separated config string layered over the defaults.
func NewManager(raw string) *Manager {
	out := make(map[string]string, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given user.
// Values are on/true/1, off/false/0, or N% for a deterministic per-user rollout.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	m.mu.RLock()
	value, ok := m.flags[normalize(name)]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if userID == 0 {
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Set overrides one flag at runtime.
func (m *Manager) Set(name, value string) error {
	name, value = normalize(name), normalize(value)
	if name == "" || value == "" {
		return fmt.Errorf("flag name and value are required")
	}
	m.mu.Lock()
	m.flags[name] = value
	m.mu.Unlock()
	return nil
}

// Names returns the configured flag names in order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.flags))
	for k := range m.flags {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	names := m.Names()
	out := make(map[string]bool, len(names))
	for _, name := range names {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
