package stats

import (
	"runtime"

	"github.com/prometheus/procfs"
)

// MemorySnapshot returns the resident set size of the current process in bytes.
// Where /proc is unavailable it falls back to the memory obtained by the Go
// runtime.
func MemorySnapshot() uint64 {
	if p, err := procfs.Self(); err == nil {
		if st, err := p.Stat(); err == nil {
			if rss := st.ResidentMemory(); rss > 0 {
				return uint64(rss)
			}
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys
}
