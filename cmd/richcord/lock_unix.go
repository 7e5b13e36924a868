//go:build !windows

package main

import (
	"os"
	"syscall"
)

// lockFile takes a non-blocking exclusive flock on f. It fails at once when
// another process holds the lock.
func lockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

func unlockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
