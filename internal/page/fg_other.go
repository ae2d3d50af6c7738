//go:build !linux && !darwin

package page

import "os"

var continueSignals []os.Signal

func foreground(int) bool { return true }
