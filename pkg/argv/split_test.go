// SPDX-License-Identifier: Apache-2.0
package argv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"whitespace only", "  \t ", []string{}},
		{"legacy arguments",
			"--username ${auth_player_name} --session ${auth_session} --version ${version_name}",
			[]string{"--username", "${auth_player_name}", "--session", "${auth_session}", "--version", "${version_name}"}},
		{"double quoted path", `--gameDir "/home/steve/My Games"`, []string{"--gameDir", "/home/steve/My Games"}},
		{"windows path in double quotes", `--gameDir "C:\Games\mc"`, []string{"--gameDir", `C:\Games\mc`}},
		{"single quotes literal", `-Dfoo='a "b" c'`, []string{`-Dfoo=a "b" c`}},
		{"escaped space", `a\ b c`, []string{"a b", "c"}},
		{"empty quoted word", `--userProperties "" --x`, []string{"--userProperties", "", "--x"}},
		{"adjacent quotes", `-Dx="a"'b'c`, []string{"-Dx=abc"}},
		{"escaped quote in double quotes", `"say \"hi\""`, []string{`say "hi"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unclosed double", `--gameDir "oops`, ErrUnclosedQuote},
		{"unclosed single", `'oops`, ErrUnclosedQuote},
		{"trailing escape", `oops\`, ErrTrailingEscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFields_FallsBackOnBadQuoting(t *testing.T) {
	assert.Equal(t, []string{"--a", `"b`}, Fields(`--a "b`))
	assert.Equal(t, []string{"--a", "b c"}, Fields(`--a "b c"`))
}

func TestJoin_RoundTrip(t *testing.T) {
	args := []string{"java", "-cp", "/a b/c.jar:/d.jar", "it's", "", "$HOME", "plain"}
	joined := Join(args)

	back, err := Split(joined)
	require.NoError(t, err)
	assert.Equal(t, args, back)
}

func TestRedact(t *testing.T) {
	args := []string{"Main", "--username", "Steve", "--accessToken", "tok", "--uuid", "u", "--session", "tok"}
	got := Redact(args, "u")

	assert.Equal(t, []string{"Main", "--username", "Steve", "--accessToken", Mask, "--uuid", Mask, "--session", Mask}, got)
	assert.Equal(t, "tok", args[4], "input must not be modified")
}
