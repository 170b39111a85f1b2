package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dygy/sc-sampler/internal/engine"
	"github.com/dygy/sc-sampler/internal/programs"
	"github.com/dygy/sc-sampler/internal/render"
)

// Job status constants
type JobStatus string

const (
	StatusPending  JobStatus = "pending"
	StatusRunning  JobStatus = "running"
	StatusComplete JobStatus = "complete"
	StatusStopped  JobStatus = "stopped"
	StatusFailed   JobStatus = "failed"
)

// Job kinds
type JobKind string

const (
	KindProgram JobKind = "program"
	KindRender  JobKind = "render"
)

// Job represents a running program or render
type Job struct {
	ID         string
	Kind       JobKind
	Name       string
	Status     JobStatus
	Stage      string
	Error      string
	WorkDir    string
	OutputPath string
	CreatedAt  time.Time

	cancel context.CancelFunc
}

// JobManager manages program and render jobs
type JobManager struct {
	jobs   map[string]*Job
	mu     sync.RWMutex
	config Config
	logger *slog.Logger
}

// NewJobManager creates a new job manager
func NewJobManager(cfg Config, logger *slog.Logger) *JobManager {
	return &JobManager{
		jobs:   make(map[string]*Job),
		config: cfg,
		logger: logger,
	}
}

// Create creates a new job
func (m *JobManager) Create(kind JobKind, name string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := fmt.Sprintf("%d", time.Now().UnixNano())
	workDir, _ := os.MkdirTemp("", "sc-sampler-job-*")

	job := &Job{
		ID:        id,
		Kind:      kind,
		Name:      name,
		Status:    StatusPending,
		Stage:     "queued",
		WorkDir:   workDir,
		CreatedAt: time.Now(),
	}

	m.jobs[id] = job
	return job
}

// Get retrieves a job by ID
func (m *JobManager) Get(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// JobView is the JSON shape of a job
type JobView struct {
	ID        string    `json:"id"`
	Kind      JobKind   `json:"kind"`
	Name      string    `json:"name"`
	Status    JobStatus `json:"status"`
	Stage     string    `json:"stage"`
	Error     string    `json:"error,omitempty"`
	HasOutput bool      `json:"has_output"`
	CreatedAt time.Time `json:"created_at"`
}

// View snapshots a job for JSON responses
func (m *JobManager) View(job *Job) JobView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return JobView{
		ID:        job.ID,
		Kind:      job.Kind,
		Name:      job.Name,
		Status:    job.Status,
		Stage:     job.Stage,
		Error:     job.Error,
		HasOutput: job.OutputPath != "",
		CreatedAt: job.CreatedAt,
	}
}

// Output returns the rendered file path once the job has completed
func (m *JobManager) Output(job *Job) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if job.Status != StatusComplete || job.OutputPath == "" {
		return "", false
	}
	return job.OutputPath, true
}

// Stop cancels a running job
func (m *JobManager) Stop(id string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.jobs[id]
	if job == nil {
		return nil
	}
	if job.Status == StatusPending || job.Status == StatusRunning {
		job.Status = StatusStopped
		job.Stage = "stopped"
		if job.cancel != nil {
			job.cancel()
		}
	}
	return job
}

// StopAll cancels every running job, used during shutdown
func (m *JobManager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.cancel != nil {
			job.cancel()
		}
	}
}

func (m *JobManager) update(job *Job, status JobStatus, stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// A stopped job keeps its terminal state even if the worker finishes
	// normally after the cancel.
	if job.Status == StatusStopped {
		return
	}
	job.Status = status
	job.Stage = stage
}

func (m *JobManager) fail(job *Job, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.Status == StatusStopped {
		return
	}
	job.Status = StatusFailed
	job.Error = err.Error()
	m.logger.Error("job failed", slog.String("id", job.ID), slog.Any("error", err))
}

// RunProgram connects to scsynth and plays a generative program until it
// finishes or the job is stopped.
func (m *JobManager) RunProgram(job *Job, opts programs.Options) {
	defer m.cleanupLater(job)

	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	job.cancel = cancel
	stopped := job.Status == StatusStopped
	m.mu.Unlock()
	defer cancel()
	if stopped {
		return
	}

	m.update(job, StatusRunning, "connecting to scsynth")
	conn, err := engine.DialSC(m.config.SCAddr)
	if err != nil {
		m.fail(job, err)
		return
	}
	tl := engine.NewLive(conn)
	defer tl.Close()

	m.update(job, StatusRunning, "loading buffers")
	env, err := programs.LoadEnv(ctx, tl, m.config.SamplesDir, m.config.PianoDir, opts.Quiet, m.logger)
	if err != nil {
		m.fail(job, err)
		return
	}

	m.update(job, StatusRunning, "playing")
	if err := programs.Run(ctx, job.Name, env, opts); err != nil {
		m.fail(job, err)
		return
	}
	m.update(job, StatusComplete, "finished")
}

// RunRender renders an uploaded file offline into the job work directory.
func (m *JobManager) RunRender(job *Job, renderKind, inputPath string, riffDuration float64, opts render.Options) {
	defer m.cleanupLater(job)

	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	job.cancel = cancel
	stopped := job.Status == StatusStopped
	m.mu.Unlock()
	defer cancel()
	if stopped {
		return
	}

	outputPath := filepath.Join(job.WorkDir, "render.wav")
	m.update(job, StatusRunning, "rendering")

	var err error
	switch renderKind {
	case "drums":
		err = m.config.Renderer.RenderDrums(ctx, inputPath, outputPath, opts)
	case "piano":
		err = m.config.Renderer.RenderPiano(ctx, inputPath, outputPath, opts)
	case "riff":
		err = m.config.Renderer.RenderRiff(ctx, outputPath, riffDuration, opts)
	default:
		err = fmt.Errorf("unknown render kind %q", renderKind)
	}
	if err != nil {
		m.fail(job, err)
		return
	}

	m.mu.Lock()
	job.OutputPath = outputPath
	m.mu.Unlock()
	m.update(job, StatusComplete, "finished")
}

// cleanupLater removes the work directory and forgets the job after a
// grace period so the output stays downloadable for a while.
func (m *JobManager) cleanupLater(job *Job) {
	time.AfterFunc(10*time.Minute, func() {
		os.RemoveAll(job.WorkDir)
		m.mu.Lock()
		delete(m.jobs, job.ID)
		m.mu.Unlock()
	})
}
