//go:build !linux

package parallel

// Pin is a no-op on platforms without thread affinity support.
// Affinity is a best-effort hint, so absence of the capability is not an
// error.
func Pin(core int) error {
	_ = core
	return nil
}
