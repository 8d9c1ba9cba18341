//go:build !linux

package supervisor

import "os"

// SystemReboot exits the process on non-linux hosts; a process manager is
// expected to bring the service back.
func SystemReboot() {
	os.Exit(1)
}
