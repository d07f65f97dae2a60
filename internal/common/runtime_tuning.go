package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Runtime profiles for different server configurations
const (
	// Small server: 2 vCPU, 4GB RAM
	SmallServerGOGC     = 200
	SmallServerMemLimit = 2.5 * 1024 * 1024 * 1024 // 2.5GB

	// Medium server: 4-8 vCPU, 8-16GB RAM
	MediumServerGOGC     = 300
	MediumServerMemLimit = 6 * 1024 * 1024 * 1024 // 6GB

	// Large server: 16+ vCPU
	LargeServerGOGC     = 400
	LargeServerMemLimit = 12 * 1024 * 1024 * 1024 // 12GB
)

// detectServerProfile picks GC settings from the CPU count
func detectServerProfile() (gogc int, memLimit int64) {
	switch totalCPU := runtime.NumCPU(); {
	case totalCPU <= 2:
		return SmallServerGOGC, int64(SmallServerMemLimit)
	case totalCPU <= 8:
		return MediumServerGOGC, int64(MediumServerMemLimit)
	default:
		return LargeServerGOGC, int64(LargeServerMemLimit)
	}
}

// InitRuntime tunes the GC for graph rebuilds, which allocate one short-lived
// edge map per rebuild. Override with GOGC and GOMEMLIMIT.
func InitRuntime() {
	defaultGOGC, defaultMemLimit := detectServerProfile()

	if gcPercent := os.Getenv("GOGC"); gcPercent == "" {
		debug.SetGCPercent(defaultGOGC)
		log.Info().
			Int("GOGC", defaultGOGC).
			Msg("[runtime] Set GOGC")
	}

	// Memory limit bounds heap growth under the raised GOGC
	if memLimit := os.Getenv("GOMEMLIMIT"); memLimit == "" {
		debug.SetMemoryLimit(defaultMemLimit)
		log.Info().
			Int64("GOMEMLIMIT_bytes", defaultMemLimit).
			Float64("GOMEMLIMIT_GB", float64(defaultMemLimit)/1024/1024/1024).
			Msg("[runtime] Set memory limit")
	}

	logRuntimeSettings()
}

// logRuntimeSettings logs current Go runtime configuration
func logRuntimeSettings() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Uint64("heap_sys_mb", memStats.HeapSys/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] Current runtime settings")
}
