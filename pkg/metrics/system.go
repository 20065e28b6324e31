package metrics

import (
	"runtime"
)

const nanosPerMilli = 1e6

// CollectSystem samples memory, goroutine and GC pause gauges.
// lastNumGC is the GC count seen by the previous call; the new count is returned.
func CollectSystem(lastNumGC uint32) uint32 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	UpdateSystemMemoryUsage(ms.Alloc)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())

	// PauseNs is a circular buffer of the last 256 pauses.
	n := ms.NumGC - lastNumGC
	if n > uint32(len(ms.PauseNs)) {
		n = uint32(len(ms.PauseNs))
	}
	for i := uint32(0); i < n; i++ {
		idx := (ms.NumGC - i + uint32(len(ms.PauseNs)) - 1) % uint32(len(ms.PauseNs))
		RecordSystemGCPauseTime(float64(ms.PauseNs[idx]) / nanosPerMilli)
	}
	return ms.NumGC
}
