//go:build linux || darwin

package page

import (
	"os"

	"golang.org/x/sys/unix"
)

var continueSignals = []os.Signal{unix.SIGCONT}

func foreground(fd int) bool {
	pgrp, err := unix.IoctlGetInt(fd, unix.TIOCGPGRP)
	if err != nil {
		return false
	}
	return pgrp == unix.Getpgrp()
}
