// SPDX-License-Identifier: Apache-2.0
//go:build !windows

package supervisor

import "syscall"

// detachedAttrs puts the game in its own process group so terminal signals
// aimed at the launcher do not reach it.
func detachedAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
