package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"squeeze/internal/compress"
	"squeeze/internal/engine"
	"squeeze/internal/fileutil"
	"squeeze/internal/logging"
	"squeeze/internal/textutil"
)

const (
	multipartMemory = 32 << 20
	downloadPath    = "/api/jobs/current/download"
)

type startJobRequest struct {
	URL    string `json:"url"`
	Preset string `json:"preset"`
}

type jobResponse struct {
	compress.Snapshot
	SpeedLabel  string `json:"speed_label"`
	ETALabel    string `json:"eta_label"`
	DownloadURL string `json:"download_url,omitempty"`
}

func newJobResponse(snap compress.Snapshot) jobResponse {
	resp := jobResponse{
		Snapshot:   snap,
		SpeedLabel: compress.FormatSpeed(snap.Telemetry.Speed),
		ETALabel:   compress.FormatETA(snap.Telemetry.ETASeconds),
	}
	if snap.Result != nil {
		resp.DownloadURL = downloadPath
	}
	return resp
}

func (s *apiServer) handleStartJob(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		src      engine.Source
		preset   string
		uploaded string
	)
	if mediaType == "multipart/form-data" {
		path, presetValue, status, err := s.receiveUpload(w, r)
		if err != nil {
			s.writeError(w, status, err.Error())
			return
		}
		src, preset, uploaded = engine.FileSource(path), presetValue, path
	} else {
		var req startJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		src = engine.ParseSource(req.URL)
		if !src.IsURL() {
			s.writeError(w, http.StatusBadRequest, "url must be an http or https address")
			return
		}
		preset = req.Preset
	}

	job, err := s.daemon.ctrl.Start(r.Context(), src, preset)
	if err != nil {
		if uploaded != "" {
			_ = os.Remove(uploaded)
		}
		s.writeServiceError(w, err)
		return
	}
	s.replaceUpload(job.ID, uploaded)

	logging.WithContext(r.Context(), s.logger).Info("job accepted via api",
		logging.Uint64(logging.FieldJobID, job.ID),
		logging.String("source", src.Name()),
		logging.String("preset", string(job.Preset.ID)),
	)
	s.writeJSON(w, http.StatusAccepted, newJobResponse(job.Snapshot()))
}

// receiveUpload stores the multipart "file" field in staging and returns its
// path, the submitted preset, and an HTTP status for failures.
func (s *apiServer) receiveUpload(w http.ResponseWriter, r *http.Request) (string, string, int, error) {
	if limit := s.daemon.cfg.MaxUploadBytes(); limit > 0 {
		if r.ContentLength > limit {
			return "", "", http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", limit)
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", "", http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit)
		}
		return "", "", http.StatusBadRequest, errors.New("failed to parse upload")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", http.StatusBadRequest, errors.New("no file uploaded")
	}
	defer file.Close()

	name := textutil.SanitizeFileName(filepath.Base(header.Filename))
	if name == "" || name == "." {
		name = "upload"
	}
	dst := filepath.Join(s.daemon.cfg.Paths.StagingDir, "upload-"+uuid.NewString()+"-"+name)
	if _, err := fileutil.WriteStream(dst, file); err != nil {
		return "", "", http.StatusInternalServerError, fmt.Errorf("save upload: %w", err)
	}
	return dst, r.FormValue("preset"), http.StatusOK, nil
}

// replaceUpload records the upload feeding jobID and deletes whichever upload
// belongs to the older job. Handlers can reach this out of Start order, so a
// job that was already superseded drops its own file instead of the newer one.
func (s *apiServer) replaceUpload(jobID uint64, next string) {
	s.uploadMu.Lock()
	stale := next
	if jobID > s.lastUploadJob {
		stale = s.lastUpload
		s.lastUpload = next
		s.lastUploadJob = jobID
	}
	s.uploadMu.Unlock()

	if stale == "" {
		return
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(s.logger, "failed to remove previous upload", "upload_cleanup_failed",
			logging.String("path", stale),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale upload remains in staging"),
		)
	}
}

func (s *apiServer) handleCurrentJob(w http.ResponseWriter, r *http.Request) {
	job := s.daemon.ctrl.Current()
	if job == nil {
		s.writeError(w, http.StatusNotFound, "no job has been started")
		return
	}
	s.writeJSON(w, http.StatusOK, newJobResponse(job.Snapshot()))
}

func (s *apiServer) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	job := s.daemon.ctrl.Current()
	if job == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.daemon.ctrl.Cancel(r.Context()); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newJobResponse(job.Snapshot()))
}

func (s *apiServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	result, ok := s.daemon.ctrl.Result()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no compressed video available")
		return
	}
	f, err := os.Open(result.Path)
	if err != nil {
		s.writeError(w, http.StatusGone, "compressed video is no longer on disk")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.FileName}))
	http.ServeContent(w, r, result.FileName, info.ModTime(), f)
}
