package system

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryStats is a snapshot of host memory in bytes.
type MemoryStats struct {
	Total     uint64
	Available uint64
	Used      uint64
}

// Memory reads current host memory usage.
func Memory() (MemoryStats, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStats{}, fmt.Errorf("read virtual memory: %w", err)
	}
	return MemoryStats{Total: v.Total, Available: v.Available, Used: v.Used}, nil
}

// WorkerCount is the number of logical CPUs, used to size decode fan-out.
func WorkerCount() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// DecodeBudget caps the pixel count of one decoded image so that the two
// display slots plus a preloaded image fit comfortably into a small share of
// available memory. Zero means no limit could be computed.
func DecodeBudget(m MemoryStats) int {
	if m.Available == 0 {
		return 0
	}
	// 4 bytes per RGBA pixel, three images resident, 1/16 of free memory.
	return int(m.Available / 16 / 3 / 4)
}
