// SPDX-License-Identifier: Apache-2.0
package plan

import (
	"strconv"
	"strings"

	"github.com/provide-io/craftlaunch/pkg/argv"
	"github.com/provide-io/craftlaunch/pkg/descriptor"
)

// defaultGameArgs is used when a descriptor carries no game arguments at all.
var defaultGameArgs = []string{
	"--username", "${auth_player_name}",
	"--version", "${version_name}",
	"--gameDir", "${game_directory}",
	"--assetsDir", "${assets_root}",
	"--assetIndex", "${assets_index_name}",
	"--uuid", "${auth_uuid}",
	"--accessToken", "${auth_access_token}",
	"--userType", "${user_type}",
	"--versionType", "${version_type}",
}

// booleanGameFlags take no value.
var booleanGameFlags = map[string]bool{
	"--demo":               true,
	"--fullscreen":         true,
	"--disableMultiplayer": true,
	"--disableChat":        true,
}

var quickPlayFlags = map[string]bool{
	"--quickPlayPath":         true,
	"--quickPlaySingleplayer": true,
	"--quickPlayMultiplayer":  true,
	"--quickPlayRealms":       true,
}

func (b *Builder) gameVars(in *Input) map[string]string {
	d := in.Descriptor
	c := in.Credentials

	versionType := d.Type
	if versionType == "" {
		versionType = "release"
	}
	vars := map[string]string{
		"auth_player_name":      c.PlayerName,
		"auth_uuid":             c.AccountID,
		"auth_access_token":     c.AccessToken,
		"auth_session":          c.AccessToken,
		"auth_xuid":             "",
		"clientid":              "",
		"user_type":             c.Type(),
		"user_properties":       "{}",
		"version_name":          d.ID,
		"version_type":          versionType,
		"game_directory":        in.Paths.Root(),
		"assets_root":           in.Paths.Assets(),
		"game_assets":           in.Paths.LegacyAssets(),
		"assets_index_name":     d.AssetIndexName(),
		"launcher_name":         in.Options.LauncherName,
		"launcher_version":      in.Options.LauncherVersion,
		"quickPlayPath":         "",
		"quickPlaySingleplayer": "",
		"quickPlayMultiplayer":  "",
		"quickPlayRealms":       "",
	}
	if in.Options.Width > 0 && in.Options.Height > 0 {
		vars["resolution_width"] = strconv.Itoa(in.Options.Width)
		vars["resolution_height"] = strconv.Itoa(in.Options.Height)
	}
	return vars
}

func (b *Builder) rawGameArgs(in *Input, env descriptor.Environment) []string {
	d := in.Descriptor
	if entries := d.GameArguments(); entries != nil {
		var raw []string
		for i := range entries {
			if entries[i].Included(env) {
				raw = append(raw, entries[i].Values...)
			}
		}
		return raw
	}
	if d.MinecraftArguments != "" {
		return argv.Fields(d.MinecraftArguments)
	}
	b.logger.Debug("📜 No game arguments in descriptor, using defaults")
	return defaultGameArgs
}

func isGameFlag(tok string) bool {
	return strings.HasPrefix(tok, "--") && len(tok) > 2
}

// gameArgs substitutes credentials and paths into the game list. A token
// that cannot be fully substituted is dropped, together with the flag that
// expected it; --demo is never emitted and at most one quick play flag is.
func (b *Builder) gameArgs(in *Input, env descriptor.Environment, st *state) []string {
	raw := b.rawGameArgs(in, env)
	vars := b.gameVars(in)

	var out []string
	quickPlay := false
	for i := 0; i < len(raw); i++ {
		tok := raw[i]

		if !isGameFlag(tok) {
			val, ok := substitute(tok, vars)
			if !ok || val == "" {
				st.warn("dropped game argument %q", tok)
				continue
			}
			out = append(out, val)
			continue
		}

		if tok == "--demo" {
			continue
		}
		if booleanGameFlags[tok] {
			out = append(out, tok)
			continue
		}
		if i+1 >= len(raw) || isGameFlag(raw[i+1]) {
			st.warn("dropped game flag %s without a value", tok)
			continue
		}

		i++
		val, ok := substitute(raw[i], vars)
		if !ok || val == "" || hasPlaceholder(val) {
			st.warn("dropped game flag %s with unresolved value %q", tok, raw[i])
			continue
		}
		if quickPlayFlags[tok] {
			if quickPlay {
				st.warn("dropped repeated quick play flag %s", tok)
				continue
			}
			quickPlay = true
		}
		out = append(out, tok, val)
	}

	if w, ok := vars["resolution_width"]; ok && !contains(out, "--width") {
		out = append(out, "--width", w, "--height", vars["resolution_height"])
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
