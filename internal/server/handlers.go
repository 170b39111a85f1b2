package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dygy/sc-sampler/internal/programs"
	"github.com/dygy/sc-sampler/internal/render"
)

const maxUploadSize = 32 * 1024 * 1024 // 32MB

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// handlePrograms lists the registered generative programs
func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request) {
	type programView struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Implemented bool   `json:"implemented"`
	}

	list := programs.List()
	views := make([]programView, 0, len(list))
	for _, p := range list {
		views = append(views, programView{
			Name:        p.Name,
			Description: p.Description,
			Implemented: p.Implemented(),
		})
	}
	s.writeJSON(w, http.StatusOK, views)
}

// handleProgramStart starts a generative program as a background job
func (s *Server) handleProgramStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Program         string  `json:"program"`
		Intensity       float64 `json:"intensity"`
		Seed            int64   `json:"seed"`
		DurationSeconds float64 `json:"duration_seconds"`
		Quiet           bool    `json:"quiet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := programs.Get(req.Program)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if !p.Implemented() {
		s.writeError(w, http.StatusNotImplemented, fmt.Sprintf("program %s is not implemented yet", p.Name))
		return
	}
	if req.Intensity < 0 || req.Intensity > 1 {
		s.writeError(w, http.StatusBadRequest, "intensity must be in [0, 1]")
		return
	}

	job := s.jobs.Create(KindProgram, p.Name)
	opts := programs.Options{
		Intensity: req.Intensity,
		Seed:      req.Seed,
		Duration:  time.Duration(req.DurationSeconds * float64(time.Second)),
		Quiet:     req.Quiet,
	}
	go s.jobs.RunProgram(job, opts)

	s.writeJSON(w, http.StatusAccepted, s.jobs.View(job))
}

// handleRender renders an uploaded MIDI or MIDICSV file as a background job
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.writeError(w, http.StatusBadRequest, "file too large or malformed upload")
		return
	}

	kind := r.FormValue("kind")
	if kind == "" {
		kind = "drums"
	}
	if kind != "drums" && kind != "piano" && kind != "riff" {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown render kind %q", kind))
		return
	}

	opts := render.Options{
		Style:            r.FormValue("style"),
		Quiet:            r.FormValue("quiet") == "true",
		MappingOverrides: r.Form["map"],
	}
	if v := r.FormValue("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "seed must be an integer")
			return
		}
		opts.Seed = seed
	}
	if v := r.FormValue("sample_rate"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			s.writeError(w, http.StatusBadRequest, "sample_rate must be a positive integer")
			return
		}
		opts.SampleRate = rate
	}

	riffDuration := 10.0
	if v := r.FormValue("duration"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d <= 0 {
			s.writeError(w, http.StatusBadRequest, "duration must be a positive number of seconds")
			return
		}
		riffDuration = d
	}

	var job *Job
	var inputPath string
	if kind == "riff" {
		job = s.jobs.Create(KindRender, "riff")
	} else {
		file, header, err := r.FormFile("input")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "missing input file")
			return
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".mid", ".midi", ".csv", ".midicsv":
		default:
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported input format %q", ext))
			return
		}

		job = s.jobs.Create(KindRender, header.Filename)
		inputPath = filepath.Join(job.WorkDir, "input"+ext)
		dst, err := os.Create(inputPath)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to save upload")
			return
		}
		defer dst.Close()
		if _, err := io.Copy(dst, file); err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to save upload")
			return
		}
	}

	go s.jobs.RunRender(job, kind, inputPath, riffDuration, opts)

	s.writeJSON(w, http.StatusAccepted, s.jobs.View(job))
}

// handleJobStatus returns the current state of a job
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, s.jobs.View(job))
}

// handleJobStop cancels a running job
func (s *Server) handleJobStop(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Stop(chi.URLParam(r, "id"))
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, s.jobs.View(job))
}

// handleJobDownload serves the rendered WAV of a completed render job
func (s *Server) handleJobDownload(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	path, ok := s.jobs.Output(job)
	if !ok {
		s.writeError(w, http.StatusNotFound, "output not ready")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}
