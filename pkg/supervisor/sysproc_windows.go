// SPDX-License-Identifier: Apache-2.0
//go:build windows

package supervisor

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// detachedAttrs starts the game in a new process group so console control
// events aimed at the launcher do not reach it.
func detachedAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}
