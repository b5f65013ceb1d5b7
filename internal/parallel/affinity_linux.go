//go:build linux

package parallel

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and binds that thread to
// the given CPU core. Returns any error from the scheduler syscall; callers
// treat pinning as a best-effort hint.
func Pin(core int) error {
	if core < 0 || core >= runtime.NumCPU() {
		return unix.EINVAL
	}

	// The goroutine must stay on this thread for the pin to mean anything.
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}
