//go:build !unix

package scan

import "io/fs"

// posixPermissions reports no permission bits on non-POSIX hosts, where
// the concept doesn't map cleanly onto a single mode integer.
func posixPermissions(info fs.FileInfo) *uint32 {
	return nil
}
