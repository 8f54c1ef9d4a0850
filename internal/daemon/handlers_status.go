package daemon

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"squeeze/internal/budget"
	"squeeze/internal/compress"
	"squeeze/internal/preflight"
)

type presetResponse struct {
	ID                 budget.PresetID `json:"id"`
	Label              string          `json:"label"`
	TargetSizeBytes    int64           `json:"target_size_bytes"`
	TargetSize         string          `json:"target_size"`
	VideoBitrateFactor float64         `json:"video_bitrate_factor"`
	AudioBitrate       int64           `json:"audio_bitrate"`
	MaxDurationSeconds float64         `json:"max_duration_seconds"`
	Default            bool            `json:"default"`
	Plan               *budget.Plan    `json:"plan,omitempty"`
	PlanError          string          `json:"plan_error,omitempty"`
}

type probeCacheStatus struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
}

type statusResponse struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	Address      string             `json:"address"`
	LockFilePath string             `json:"lock_file_path"`
	Job          *compress.Snapshot `json:"job,omitempty"`
	Totals       map[string]int     `json:"totals"`
	LastEventAt  *time.Time         `json:"last_event_at,omitempty"`
	ProbeCache   *probeCacheStatus  `json:"probe_cache,omitempty"`
	Preflight    preflight.Report   `json:"preflight"`
	Ready        bool               `json:"ready"`
}

func (s *apiServer) handlePresets(w http.ResponseWriter, r *http.Request) {
	var duration float64
	if raw := r.URL.Query().Get("duration"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid duration %q", raw))
			return
		}
		duration = parsed
	}

	presets := budget.Presets()
	out := make([]presetResponse, 0, len(presets))
	for _, p := range presets {
		resp := presetResponse{
			ID:                 p.ID,
			Label:              p.Label(),
			TargetSizeBytes:    p.TargetSizeBytes(),
			TargetSize:         humanize.IBytes(uint64(p.TargetSizeBytes())),
			VideoBitrateFactor: p.VideoBitrateFactor,
			AudioBitrate:       p.AudioBitrate(),
			MaxDurationSeconds: budget.MaxFeasibleDuration(p),
			Default:            string(p.ID) == s.daemon.cfg.Compress.DefaultPreset,
		}
		if duration > 0 {
			plan, err := budget.CalculateFor(p, duration)
			if err != nil {
				resp.PlanError = err.Error()
			} else {
				resp.Plan = &plan
			}
		}
		out = append(out, resp)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	report := preflight.Collect(r.Context(), s.daemon.cfg)
	totals, last := s.daemon.view.summary()
	resp := statusResponse{
		Running:      s.daemon.running.Load(),
		PID:          os.Getpid(),
		Address:      s.addr(),
		LockFilePath: s.daemon.cfg.LockPath(),
		Totals:       totals,
		Preflight:    report,
		Ready:        report.Ready(),
	}
	if !last.IsZero() {
		resp.LastEventAt = &last
	}
	if job := s.daemon.ctrl.Current(); job != nil {
		snap := job.Snapshot()
		resp.Job = &snap
	}
	if s.daemon.cache != nil {
		entries, err := s.daemon.cache.Count(r.Context())
		if err == nil {
			resp.ProbeCache = &probeCacheStatus{Path: s.daemon.cache.Path(), Entries: entries}
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}
