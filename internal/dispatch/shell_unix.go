//go:build !windows

package dispatch

import "syscall"

// detachedAttr puts the child in its own process group so it is not tied to
// the launcher's terminal signals.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
