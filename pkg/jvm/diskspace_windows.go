// SPDX-License-Identifier: Apache-2.0
//go:build windows

package jvm

import "golang.org/x/sys/windows"

// availableDiskSpace returns the bytes available to the caller on the
// volume holding path.
func availableDiskSpace(path string) (int64, error) {
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var free, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(ptr, &free, &total, &totalFree); err != nil {
		return 0, err
	}
	return int64(free), nil
}
