// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/craftlaunch/internal/config"
	"github.com/provide-io/craftlaunch/internal/instance"
	"github.com/provide-io/craftlaunch/pkg/credentials"
	"github.com/provide-io/craftlaunch/pkg/engine"
)

func TestLaunchFlagsProvider(t *testing.T) {
	_, err := (&launchFlags{}).provider()
	assert.ErrorIs(t, err, engine.ErrInvalidRequest)

	_, err = (&launchFlags{offline: true}).provider()
	assert.ErrorIs(t, err, engine.ErrInvalidRequest)

	_, err = (&launchFlags{offline: true, username: "Steve", credentialsPath: "c.json"}).provider()
	assert.ErrorIs(t, err, engine.ErrInvalidRequest)

	p, err := (&launchFlags{offline: true, username: "Steve"}).provider()
	require.NoError(t, err)
	creds, err := p.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Steve", creds.PlayerName)
	assert.Equal(t, credentials.UserTypeLegacy, creds.UserType)

	p, err = (&launchFlags{credentialsPath: "c.json"}).provider()
	require.NoError(t, err)
	assert.Equal(t, credentials.FileProvider{Path: "c.json"}, p)
}

func TestExactArgsIsInvalidInput(t *testing.T) {
	err := exactArgs(1)(&cobra.Command{}, nil)
	assert.Equal(t, engine.ExitInvalidArgs, engine.ExitCode(err))
	assert.NoError(t, exactArgs(1)(&cobra.Command{}, []string{"1.20.4"}))
}

func TestEnsureInstanceCreatesLayout(t *testing.T) {
	cfg = config.Default()
	cfg.InstanceRoot = filepath.Join(t.TempDir(), "mc")
	logger = hclog.NewNullLogger()
	t.Cleanup(func() { cfg, logger = nil, nil })

	require.NoError(t, ensureInstance())
	for _, dir := range instance.Layout {
		assert.DirExists(t, filepath.Join(cfg.InstanceRoot, dir.Path))
	}
}
