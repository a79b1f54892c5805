// Package config exposes small typed readers over the environment
// variables the core consumes: one place that knows the variable names,
// instead of scattered os.Getenv calls.
package config

import (
	"os"
	"strings"
)

// SelectedSubscribers reads FASTPUBSUB_SUBSCRIBERS and returns the
// case-folded, trimmed, non-empty aliases it names. A nil/empty slice
// means "no selection" (run every registered subscriber).
func SelectedSubscribers() []string {
	raw := os.Getenv("FASTPUBSUB_SUBSCRIBERS")
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		alias := strings.ToLower(strings.TrimSpace(part))
		if alias == "" {
			continue
		}
		out = append(out, alias)
	}
	return out
}

// EmulatorMode reports whether PUBSUB_EMULATOR_HOST is set, the same
// variable cloud.google.com/go/pubsub itself honors when dialing.
func EmulatorMode() bool {
	return os.Getenv("PUBSUB_EMULATOR_HOST") != ""
}

// LogLevel reads FASTPUBSUB_LOG_LEVEL, defaulting to "info".
func LogLevel() string {
	if v := os.Getenv("FASTPUBSUB_LOG_LEVEL"); v != "" {
		return v
	}
	return "info"
}
