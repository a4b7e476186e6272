// SPDX-License-Identifier: Apache-2.0
package supervisor

import (
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-hclog"
)

// EnvConfig adjusts the environment inherited by the game.
type EnvConfig struct {
	// Unset lists variable names or glob patterns to remove.
	Unset []string
	// Set adds or overrides variables after Unset is applied.
	Set map[string]string
}

// windowsCriticalVars are never removed on Windows.
var windowsCriticalVars = map[string]bool{
	"SYSTEMROOT": true,
	"WINDIR":     true,
	"TEMP":       true,
	"TMP":        true,
	"PATHEXT":    true,
	"COMSPEC":    true,
}

func buildEnv(parent []string, cfg EnvConfig, logger hclog.Logger) []string {
	envMap := make(map[string]string, len(parent))
	for _, e := range parent {
		if k, v, ok := strings.Cut(e, "="); ok && k != "" {
			envMap[k] = v
		}
	}

	if len(cfg.Unset) > 0 {
		logger.Debug("🗑️ Processing unset operations", "count", len(cfg.Unset))
	}
	for _, pattern := range cfg.Unset {
		for key := range envMap {
			if runtime.GOOS == "windows" && windowsCriticalVars[strings.ToUpper(key)] {
				continue
			}
			if matchEnvKey(pattern, key) {
				delete(envMap, key)
				logger.Trace("  🗑️ Unset env var", "key", key, "pattern", pattern)
			}
		}
	}

	for k, v := range cfg.Set {
		envMap[k] = v
		logger.Trace("  ➕ Set env var", "key", k, "value", redactEnv(k, v))
	}

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+envMap[k])
	}
	logEnvironmentTrace(env, logger)
	return env
}

func matchEnvKey(pattern, key string) bool {
	if runtime.GOOS == "windows" {
		pattern, key = strings.ToUpper(pattern), strings.ToUpper(key)
	}
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern == key
	}
	ok, err := doublestar.Match(pattern, key)
	return err == nil && ok
}

// logEnvironmentTrace logs the child environment at trace level with
// sensitive values redacted.
func logEnvironmentTrace(env []string, logger hclog.Logger) {
	if !logger.IsTrace() {
		return
	}
	logger.Trace("🌍 Environment variables being passed to the game:", "count", len(env))
	for _, e := range env {
		k, v, _ := strings.Cut(e, "=")
		logger.Trace("  →", "key", k, "value", redactEnv(k, v))
	}
}

func redactEnv(key, value string) string {
	if isSensitiveKey(key) {
		return "***"
	}
	return value
}

// isSensitiveKey reports whether an environment variable should be redacted in logs.
func isSensitiveKey(key string) bool {
	upper := strings.ToUpper(key)
	if upper == "SSH_AUTH_SOCK" {
		return true
	}
	for _, marker := range []string{"TOKEN", "SECRET", "PASSWORD", "API_KEY", "ACCESS_KEY"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
