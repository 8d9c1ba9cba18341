//go:build linux

package supervisor

import "syscall"

// SystemReboot restarts the whole device. Used as the fatal-failure hook on
// real hardware; tests inject their own.
func SystemReboot() {
	syscall.Sync()
	syscall.Reboot(syscall.LINUX_REBOOT_CMD_RESTART)
}
