package webhook

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type statusResponse struct {
	Uptime         string  `json:"uptime"`
	TrackedVotes   int     `json:"tracked_votes"`
	Goroutines     int     `json:"goroutines"`
	GoVersion      string  `json:"go_version"`
	CPUCount       int     `json:"cpu_count"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemUsedPercent float64 `json:"mem_used_percent"`
	MemUsedMB      uint64  `json:"mem_used_mb"`
	MemTotalMB     uint64  `json:"mem_total_mb"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Printf("status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		return
	}

	resp := statusResponse{
		Uptime:       s.now().Sub(s.startedAt).Truncate(time.Second).String(),
		TrackedVotes: count,
		Goroutines:   runtime.NumGoroutine(),
		GoVersion:    runtime.Version(),
	}

	// Host stats are best effort; missing values stay zero.
	resp.CPUCount, _ = cpu.Counts(true)
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		resp.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemUsedPercent = vm.UsedPercent
		resp.MemUsedMB = vm.Used / 1024 / 1024
		resp.MemTotalMB = vm.Total / 1024 / 1024
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
