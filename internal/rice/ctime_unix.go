//go:build linux || openbsd || dragonfly || solaris || illumos

package rice

import (
	"os"
	"syscall"
	"time"
)

// changeTime returns the inode change time, falling back to ModTime.
func changeTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Unix())
	}
	return fi.ModTime()
}
