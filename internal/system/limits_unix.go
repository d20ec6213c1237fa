//go:build unix

package system

import (
	"log/slog"
	"syscall"
)

const fileLimit = 2048

// InitResourceLimits raises the soft open-file limit so large folders can be
// scanned and checked in parallel.
func InitResourceLimits(logger *slog.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("could not read open file limit", "error", err)
		return
	}

	if rLimit.Cur >= fileLimit {
		return
	}
	rLimit.Cur = fileLimit
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("could not raise open file limit", "error", err)
		return
	}
	logger.Debug("open file limit raised", "limit", rLimit.Cur)
}
