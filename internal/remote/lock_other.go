//go:build !unix

package remote

// acquireLock is a no-op where flock(2) is unavailable; concurrent first
// fetches of one locator may then both attempt the clone.
func acquireLock(string) (func() error, error) {
	return func() error { return nil }, nil
}
