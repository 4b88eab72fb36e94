package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// IntegritySignature, when enabled for a course, replaces ID verification
// with an honor-code signature and suppresses all verification messaging.
const IntegritySignature = "integrity_signature"

// courseSep separates a flag name from a course key in course-scoped entries.
const courseSep = "@"

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "integrity_signature=off,integrity_signature@course-v1:edX+DemoX+2026=on,dashboard_cache=25%"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := normalize(parts[0])
		value := normalize(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic user rollout, e.g. 25%)
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}
	if userID == 0 && strings.HasSuffix(value, "%") && value != "100%" {
		return false
	}
	return evaluate(value, fmt.Sprintf("%s:%d", normalize(name), userID))
}

// EnabledForCourse evaluates a flag for one course. A "name@courseKey" entry
// wins over the global "name" entry; percentages bucket by course key.
func (m *Manager) EnabledForCourse(name, courseKey string) bool {
	if m == nil {
		return false
	}
	name = normalize(name)
	if value, ok := m.flags[name+courseSep+normalize(courseKey)]; ok {
		return evaluate(value, name+":"+normalize(courseKey))
	}
	value, ok := m.flags[name]
	if !ok {
		return false
	}
	return evaluate(value, name+":"+normalize(courseKey))
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated flag status for one user. Course-scoped entries
// are left out since they do not depend on the user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		if strings.Contains(name, courseSep) {
			continue
		}
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func evaluate(value, bucketKey string) bool {
	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	if strings.HasSuffix(value, "%") {
		pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
		if err != nil {
			return false
		}
		if pct <= 0 {
			return false
		}
		if pct >= 100 {
			return true
		}
		return rolloutBucket(bucketKey) < pct
	}

	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % 100)
}
