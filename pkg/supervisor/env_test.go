// SPDX-License-Identifier: Apache-2.0
package supervisor

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestBuildEnv(t *testing.T) {
	parent := []string{"PATH=/usr/bin", "JAVA_TOOL_OPTIONS=-Xss1M", "JDK_JAVA_OPTIONS=--x", "HOME=/home/steve", "_JAVA_OPTIONS=-Dy"}
	cfg := EnvConfig{
		Unset: []string{"*JAVA*OPTIONS", "HOME"},
		Set:   map[string]string{"HOME": "/srv/mc", "MC_TOKEN": "s3cret"},
	}
	logger := hclog.New(&hclog.LoggerOptions{Level: hclog.Trace})

	assert.Equal(t, []string{"HOME=/srv/mc", "MC_TOKEN=s3cret", "PATH=/usr/bin"}, buildEnv(parent, cfg, logger))
}

func TestIsSensitiveKey(t *testing.T) {
	for key, want := range map[string]bool{
		"GITHUB_TOKEN":          true,
		"AWS_SECRET_ACCESS_KEY": true,
		"db_password":           true,
		"SSH_AUTH_SOCK":         true,
		"PATH":                  false,
		"JAVA_HOME":             false,
	} {
		assert.Equal(t, want, isSensitiveKey(key), key)
	}
}
