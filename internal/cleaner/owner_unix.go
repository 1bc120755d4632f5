//go:build unix

package cleaner

import (
	"io/fs"
	"syscall"

	"golang.org/x/sys/unix"
)

func ownedByCurrentUser(info fs.FileInfo) bool {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return int(st.Uid) == unix.Getuid()
}
