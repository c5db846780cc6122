//go:build unix

package apply

import "os"

// fsyncDirImpl opens dir and fsyncs it, which on POSIX filesystems
// persists the directory-entry changes from prior renames/removes.
func fsyncDirImpl(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
