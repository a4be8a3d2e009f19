package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/pipeline"
	"github.com/couchcryptid/weather-data-etl/internal/store"
)

const uploadField = "files"

// UploadResult reports what happened to one uploaded part.
type UploadResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	StoredAs string `json:"stored_as,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UploadResponse is the body of POST /upload.
type UploadResponse struct {
	Results        []UploadResult    `json:"results"`
	PipelineStatus string            `json:"pipeline_status"`
	Summary        *pipeline.Summary `json:"summary,omitempty"`
	Error          string            `json:"error,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart/form-data body")
		return
	}

	resp := UploadResponse{Results: []UploadResult{}}
	accepted := 0
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("read multipart body: %v", err))
			return
		}
		if part.FormName() != uploadField {
			part.Close()
			continue
		}

		res := s.storeUpload(part)
		part.Close()
		if res.Status == "accepted" {
			accepted++
		}
		resp.Results = append(resp.Results, res)
	}

	if len(resp.Results) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded in field \""+uploadField+"\"")
		return
	}
	if accepted == 0 {
		resp.PipelineStatus = "skipped"
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	sum, err := s.deps.Runner.Run(r.Context())
	resp.Summary = &sum
	if err != nil {
		s.logger.Error("batch triggered by upload failed", "batch_id", sum.BatchID, "error", err)
		resp.PipelineStatus = "failed"
		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	resp.PipelineStatus = "completed"
	writeJSON(w, http.StatusOK, resp)
}

// storeUpload validates one part and hands it to the inbox.
func (s *Server) storeUpload(part *multipart.Part) UploadResult {
	res := UploadResult{Filename: part.FileName(), Status: "rejected"}
	log := s.logger.With("upload", res.Filename)

	if !strings.EqualFold(filepath.Ext(res.Filename), ".json") {
		res.Error = "only .json files are accepted"
		return res
	}

	data, err := io.ReadAll(io.LimitReader(part, s.deps.MaxUploadBytes+1))
	if err != nil {
		res.Error = fmt.Sprintf("read upload: %v", err)
		return res
	}
	if int64(len(data)) > s.deps.MaxUploadBytes {
		res.Error = fmt.Sprintf("file exceeds %d bytes", s.deps.MaxUploadBytes)
		return res
	}

	if err := domain.CheckDocumentShape(data); err != nil {
		log.Info("upload rejected", "error", err)
		res.Error = err.Error()
		return res
	}

	name, err := s.deps.Inbox.Put(data)
	if err != nil {
		log.Error("store upload failed", "error", err)
		res.Error = "could not store file"
		return res
	}
	res.Status, res.StoredAs = "accepted", name
	log.Info("upload stored", "stored_as", name, "bytes", len(data))
	return res
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Runner.Run(r.Context())
	if err != nil {
		s.logger.Error("manual batch failed", "batch_id", sum.BatchID, "error", err)
		writeJSON(w, http.StatusInternalServerError, sum)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Summaries.Summary(r.Context())
	if err != nil {
		s.logger.Warn("summary query failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "summary unavailable")
		return
	}
	if rows == nil {
		rows = []store.YearSummary{}
	}
	writeJSON(w, http.StatusOK, rows)
}
