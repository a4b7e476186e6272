// SPDX-License-Identifier: Apache-2.0
//go:build !windows

package jvm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/craftlaunch/pkg/platform"
)

func TestRegistry_Probe(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, "legacy", "bin", "java")
	touchExecutable(t, legacy, "#!/bin/sh\necho 'java version \"1.8.0_392\"' >&2\n")
	modern := filepath.Join(dir, "modern", "bin", "java")
	touchExecutable(t, modern, "#!/bin/sh\necho 'openjdk version \"21.0.1\" 2023-10-17' >&2\n")
	failing := filepath.Join(dir, "failing", "bin", "java")
	touchExecutable(t, failing, "#!/bin/sh\nexit 3\n")

	r := NewRegistry(platform.Current(), nil, testLogger())
	ctx := context.Background()

	major, err := r.Probe(ctx, legacy)
	require.NoError(t, err)
	assert.Equal(t, 8, major)

	major, err = r.Probe(ctx, modern)
	require.NoError(t, err)
	assert.Equal(t, 21, major)

	_, err = r.Probe(ctx, failing)
	assert.Error(t, err)
}
