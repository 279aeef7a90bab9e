package result

import (
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryThresholds configures when memory pressure is reported.
type MemoryThresholds struct {
	LowFreeMB      uint64
	CriticalFreeMB uint64
}

// DefaultMemoryThresholds suits a desktop-class host running one model.
func DefaultMemoryThresholds() MemoryThresholds {
	return MemoryThresholds{LowFreeMB: 512, CriticalFreeMB: 128}
}

// MemoryStatus is a point-in-time snapshot of host memory.
type MemoryStatus struct {
	TotalMB     uint64
	UsedMB      uint64
	FreeMB      uint64
	UsedPercent float64

	thresholds MemoryThresholds
}

// Low reports free memory below the low-water threshold.
func (s MemoryStatus) Low() bool {
	return s.FreeMB < s.thresholds.LowFreeMB
}

// Critical reports free memory below the critical threshold.
func (s MemoryStatus) Critical() bool {
	return s.FreeMB < s.thresholds.CriticalFreeMB
}

// WithThresholds returns a copy of the status evaluated against t.
func (s MemoryStatus) WithThresholds(t MemoryThresholds) MemoryStatus {
	s.thresholds = t
	return s
}

// virtualMemory is swappable for tests.
var virtualMemory = mem.VirtualMemory

// ReadMemoryStatus samples host memory against the given thresholds.
func ReadMemoryStatus(thresholds MemoryThresholds) (MemoryStatus, error) {
	vm, err := virtualMemory()
	if err != nil {
		return MemoryStatus{}, fmt.Errorf("read memory stats: %w", err)
	}

	const mb = 1024 * 1024

	return MemoryStatus{
		TotalMB:     vm.Total / mb,
		UsedMB:      vm.Used / mb,
		FreeMB:      vm.Available / mb,
		UsedPercent: vm.UsedPercent,
		thresholds:  thresholds,
	}, nil
}

// HasEnoughMemory reports whether at least requiredMB of memory is free and
// the configured critical floor is not breached. When the memory query itself
// fails the check passes: refusing work on an unreadable stat would turn a
// monitoring gap into an outage.
func HasEnoughMemory(thresholds MemoryThresholds, requiredMB uint64) bool {
	status, err := ReadMemoryStatus(thresholds)
	if err != nil {
		slog.Warn("memory status unavailable, allowing operation", slog.String("error", err.Error()))
		return true
	}

	return status.FreeMB >= requiredMB && !status.Critical()
}

// WithMemoryCheck refuses to run fn when less than requiredMB is free or
// memory pressure is critical, returning an out-of-memory error result
// instead of risking an OOM kill mid-operation.
func WithMemoryCheck[T any](thresholds MemoryThresholds, requiredMB uint64, fn func() (T, error)) Result[T] {
	if !HasEnoughMemory(thresholds, requiredMB) {
		return Err[T](KindOutOfMemory,
			fmt.Errorf("%w: %d MB required", ErrOutOfMemory, requiredMB))
	}

	value, err := fn()
	if err != nil {
		return Fail[T](err)
	}

	return Ok(value)
}
