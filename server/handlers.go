// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/poiesic/imagecat/catalog"
	"github.com/poiesic/imagecat/run"
)

const maxBodyBytes = 1 << 20

// ProcessRequest starts a run.
type ProcessRequest struct {
	InputFile    string   `json:"input_file"`
	OutputFile   string   `json:"output_file"`
	BatchSize    int      `json:"batch_size"`
	StartRow     int      `json:"start_row"`
	MockMode     bool     `json:"mock_mode"`
	Mode         string   `json:"mode"`
	Categories   []string `json:"selected_categories"`
	Append       bool     `json:"append"`
	KeepExisting bool     `json:"keep_existing"`
}

// ApplyRequest applies a manual selection to every row of a file.
type ApplyRequest struct {
	Categories []string `json:"categories"`
	InputFile  string   `json:"input_file"`
}

// Response is the envelope for control endpoints.
type Response struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	OutputFile string `json:"output_file,omitempty"`
	Rows       int    `json:"rows,omitempty"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.runner.Snapshot())
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.taxonomy.Groups())
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if !s.decode(w, r, &req) {
		return
	}

	job, status, err := s.jobFromRequest(req)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}

	if err := s.runner.Start(r.Context(), job); err != nil {
		if errors.Is(err, run.ErrRunInProgress) {
			s.writeError(w, http.StatusConflict, "Already processing images. Please wait or stop the current process.")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("run started", "input", job.InputPath, "output", job.OutputPath, "mode", job.Mode)

	if s.session != nil {
		if err := s.session.Remember(job); err != nil {
			s.logger.Warn("failed to remember run settings", "err", err)
		}
	}

	s.writeJSON(w, http.StatusAccepted, Response{
		Success:    true,
		Message:    "Processing started",
		RunID:      s.runner.Snapshot().RunID,
		OutputFile: job.OutputPath,
	})
}

func (s *Server) jobFromRequest(req ProcessRequest) (run.Job, int, error) {
	input := strings.TrimSpace(req.InputFile)
	if input == "" {
		return run.Job{}, http.StatusBadRequest, errors.New("input_file is required")
	}
	if _, err := os.Stat(input); err != nil {
		return run.Job{}, http.StatusBadRequest, fmt.Errorf("input file does not exist: %s", input)
	}

	mode := run.ModeLive
	if req.Mode != "" {
		parsed, err := run.ParseMode(req.Mode)
		if err != nil {
			return run.Job{}, http.StatusBadRequest, err
		}
		mode = parsed
	} else if req.MockMode {
		mode = run.ModeMock
	}

	if req.BatchSize != 0 && (req.BatchSize < run.MinBatchSize || req.BatchSize > run.MaxBatchSize) {
		return run.Job{}, http.StatusBadRequest, fmt.Errorf("%w: %d", run.ErrInvalidBatchSize, req.BatchSize)
	}
	if req.StartRow < 0 {
		return run.Job{}, http.StatusBadRequest, fmt.Errorf("%w: %d", catalog.ErrInvalidStartRow, req.StartRow)
	}

	manual, err := s.taxonomy.Resolve(req.Categories)
	if err != nil {
		return run.Job{}, http.StatusBadRequest, err
	}

	output := strings.TrimSpace(req.OutputFile)
	if output == "" {
		output = catalog.DefaultOutputPath(input)
	}

	return run.Job{
		InputPath:    input,
		OutputPath:   output,
		StartRow:     req.StartRow,
		BatchSize:    req.BatchSize,
		Manual:       manual,
		Mode:         mode,
		Append:       req.Append,
		KeepExisting: req.KeepExisting,
	}, http.StatusOK, nil
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !s.runner.Stop() {
		s.writeJSON(w, http.StatusOK, Response{Success: false, Message: "No processing in progress."})
		return
	}
	s.writeJSON(w, http.StatusOK, Response{Success: true, Message: "Processing will stop after the current image."})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Reset(); err != nil {
		if errors.Is(err, run.ErrRunInProgress) {
			s.writeError(w, http.StatusConflict, "Processing is still stopping. Try again shortly.")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.session != nil {
		if err := s.session.Reset(); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.writeJSON(w, http.StatusOK, Response{Success: true, Message: "Application has been reset"})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Categories) == 0 {
		s.writeError(w, http.StatusBadRequest, "No categories selected")
		return
	}
	input := strings.TrimSpace(req.InputFile)
	if input == "" {
		s.writeError(w, http.StatusNotFound, "Input file not found")
		return
	}
	if _, err := os.Stat(input); err != nil {
		s.writeError(w, http.StatusNotFound, "Input file not found")
		return
	}

	manual, err := s.taxonomy.Resolve(req.Categories)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := catalog.ApplyCategories(input, manual)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, catalog.ErrOutputLocked):
			status = http.StatusConflict
		case errors.Is(err, catalog.ErrEmptyCSV), errors.Is(err, catalog.ErrNoURLColumn):
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.logger.Info("applied categories", "input", input, "categories", len(manual), "rows", rows)

	s.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Applied %d categories to all images", len(manual)),
		Rows:    rows,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, Response{Success: false, Message: message, Error: message})
}
