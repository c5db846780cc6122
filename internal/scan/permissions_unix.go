//go:build unix

package scan

import "io/fs"

// posixPermissions extracts the POSIX permission bits from a FileInfo on
// hosts where they are meaningful.
func posixPermissions(info fs.FileInfo) *uint32 {
	mode := uint32(info.Mode().Perm())
	return &mode
}
