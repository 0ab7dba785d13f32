//go:build darwin || freebsd || netbsd

package rice

import (
	"os"
	"syscall"
	"time"
)

// changeTime returns the inode change time, falling back to ModTime.
func changeTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctimespec.Unix())
	}
	return fi.ModTime()
}
