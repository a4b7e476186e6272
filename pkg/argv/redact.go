// SPDX-License-Identifier: Apache-2.0
package argv

// Mask replaces secret values in printed argument vectors.
const Mask = "***"

// secretFlags are flags whose following value must never be logged.
var secretFlags = map[string]bool{
	"--accessToken": true,
	"--session":     true,
	"--xuid":        true,
}

// Redact returns a copy of args with the value of every secret flag and every
// literal occurrence of the given secrets masked.
func Redact(args []string, secrets ...string) []string {
	out := make([]string, len(args))
	copy(out, args)

	for i := range out {
		if secretFlags[out[i]] && i+1 < len(out) {
			out[i+1] = Mask
			continue
		}
		for _, s := range secrets {
			if s != "" && out[i] == s {
				out[i] = Mask
			}
		}
	}
	return out
}
