// Package jobs runs clip generation in the background. Each request is
// recorded as a job row so its progress and outcome survive in the job
// history, and finished clips are handed to the session that asked for them.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/reelsmith/reelsmith-agent/internal/clipstore"
	"github.com/reelsmith/reelsmith-agent/internal/genai"
	"github.com/reelsmith/reelsmith-agent/internal/logging"
	"github.com/reelsmith/reelsmith-agent/internal/store"
	"github.com/reelsmith/reelsmith-agent/internal/studio"
)

const (
	DefaultPollInterval  = 5 * time.Second
	DefaultMaxConcurrent = 1

	maxErrorLen = 512
)

// ErrSessionGone is recorded on jobs whose session no longer exists.
var ErrSessionGone = errors.New("session no longer open")

// ClipSink is the part of a session the runner reports into.
type ClipSink interface {
	ClipStarted(index int) error
	SetClip(index int, res studio.Resource) error
	ClipFailed(index int, cause error) error
}

// SessionLookupFunc resolves a session id to its sink.
type SessionLookupFunc func(id string) (ClipSink, error)

// ClipStore keeps downloaded clip bytes.
type ClipStore interface {
	Put(ctx context.Context, r io.Reader, contentType string) (*clipstore.Clip, error)
}

type Config struct {
	Repo          store.Repository
	Generator     genai.ClipGenerator
	Clips         ClipStore
	Sessions      SessionLookupFunc
	Credentials   genai.CredentialProvider
	Logger        *slog.Logger
	PollInterval  time.Duration
	MaxConcurrent int
}

type activeJob struct {
	sessionID string
	cancel    context.CancelFunc
}

type Runner struct {
	repo          store.Repository
	generator     genai.ClipGenerator
	clips         ClipStore
	sessions      SessionLookupFunc
	creds         genai.CredentialProvider
	logger        *slog.Logger
	pollInterval  time.Duration
	maxConcurrent int

	wake chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	active map[string]activeJob

	running atomic.Bool
	paused  atomic.Bool
}

func NewRunner(cfg Config) *Runner {
	r := &Runner{
		repo:          cfg.Repo,
		generator:     cfg.Generator,
		clips:         cfg.Clips,
		sessions:      cfg.Sessions,
		creds:         cfg.Credentials,
		logger:        cfg.Logger,
		pollInterval:  cfg.PollInterval,
		maxConcurrent: cfg.MaxConcurrent,
		wake:          make(chan struct{}, 1),
		active:        make(map[string]activeJob),
	}
	if r.pollInterval <= 0 {
		r.pollInterval = DefaultPollInterval
	}
	if r.maxConcurrent <= 0 {
		r.maxConcurrent = DefaultMaxConcurrent
	}
	return r
}

// Enqueue records a pending clip job and wakes the runner.
func (r *Runner) Enqueue(ctx context.Context, sessionID string, index int, prompt string) (*store.Job, error) {
	job := &store.Job{
		ID:           uuid.New().String(),
		Type:         store.JobTypeGenerateClip,
		Status:       store.JobStatusPending,
		SessionID:    sessionID,
		SegmentIndex: index,
		Prompt:       prompt,
	}
	if err := r.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create clip job: %w", err)
	}

	r.logger.Info("clip job queued", "job_id", job.ID, "session_id", sessionID, "index", index)

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return job, nil
}

// Start polls for pending jobs until ctx is cancelled. Jobs still running
// at that point are cancelled; Wait blocks until they have returned.
func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started", "max_concurrent", r.maxConcurrent)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
		case <-r.wake:
		}
		if !r.paused.Load() {
			r.ProcessPending(ctx)
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// ActiveCount is the number of jobs currently generating.
func (r *Runner) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Wait blocks until every started job has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// ProcessPending starts pending jobs, oldest first, while there are free
// slots. It returns how many were started.
func (r *Runner) ProcessPending(ctx context.Context) int {
	pending, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return 0
	}

	started := 0
	for _, job := range pending {
		if r.isActive(job.ID) {
			continue
		}
		jobCtx, ok := r.claim(ctx, job)
		if !ok {
			break
		}
		if err := r.repo.UpdateJobStatus(ctx, job.ID, store.JobStatusRunning, ""); err != nil {
			r.logger.Error("failed to mark job running", "job_id", job.ID, "error", err)
			r.release(job.ID)
			continue
		}

		started++
		r.wg.Add(1)
		go func(job *store.Job) {
			defer r.wg.Done()
			defer r.release(job.ID)
			r.run(jobCtx, job)
		}(job)
	}
	return started
}

func (r *Runner) isActive(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[jobID]
	return ok
}

func (r *Runner) claim(ctx context.Context, job *store.Job) (context.Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.active) >= r.maxConcurrent {
		return nil, false
	}
	jobCtx, cancel := context.WithCancel(ctx)
	r.active[job.ID] = activeJob{sessionID: job.SessionID, cancel: cancel}
	return jobCtx, true
}

func (r *Runner) release(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.active[jobID]; ok {
		a.cancel()
		delete(r.active, jobID)
	}
}

// CancelSession stops generation for a closed session and fails its
// unfinished jobs.
func (r *Runner) CancelSession(ctx context.Context, sessionID string) {
	r.mu.Lock()
	for _, a := range r.active {
		if a.sessionID == sessionID {
			a.cancel()
		}
	}
	r.mu.Unlock()

	n, err := r.repo.FailSessionJobs(ctx, sessionID, "session closed")
	if err != nil {
		r.logger.Error("failed to fail session jobs", "session_id", sessionID, "error", err)
		return
	}
	if n > 0 {
		r.logger.Info("cancelled clip jobs for closed session", "session_id", sessionID, "jobs", n)
	}
}

func (r *Runner) run(ctx context.Context, job *store.Job) {
	logger := logging.WithJobID(r.logger, job.ID).With("session_id", job.SessionID, "index", job.SegmentIndex)

	sink, err := r.sessions(job.SessionID)
	if err != nil {
		r.finishFailed(job, nil, fmt.Errorf("%w: %v", ErrSessionGone, err))
		return
	}
	if err := sink.ClipStarted(job.SegmentIndex); err != nil {
		r.finishFailed(job, nil, err)
		return
	}

	if r.creds != nil && !r.creds.HasCredential() {
		r.finishFailed(job, sink, genai.ErrCredentialRequired)
		return
	}

	logger.Info("generating clip")
	start := time.Now()

	video, err := r.generator.GenerateClip(ctx, job.Prompt)
	if err != nil {
		r.finishFailed(job, sink, err)
		return
	}
	defer video.Body.Close()

	clip, err := r.clips.Put(ctx, video.Body, video.ContentType)
	if err != nil {
		r.finishFailed(job, sink, fmt.Errorf("store clip: %w", err))
		return
	}

	// SetClip revokes the clip itself when it cannot take it.
	if err := sink.SetClip(job.SegmentIndex, clip); err != nil {
		r.finishFailed(job, nil, err)
		return
	}

	if err := r.repo.CompleteJob(context.Background(), job.ID, clip.ID()); err != nil {
		logger.Error("failed to mark job completed", "error", err)
	}
	logger.Info("clip job completed", "clip_id", clip.ID(), "duration", time.Since(start).Round(time.Millisecond))
}

// finishFailed records the failure and, when sink is set, tells the
// session. Unauthorized failures also ask for a new credential.
func (r *Runner) finishFailed(job *store.Job, sink ClipSink, cause error) {
	ctx := context.Background()
	logger := logging.WithJobID(r.logger, job.ID).With("session_id", job.SessionID, "index", job.SegmentIndex)

	if err := r.repo.UpdateJobStatus(ctx, job.ID, store.JobStatusFailed, truncateStr(cause.Error(), maxErrorLen)); err != nil {
		logger.Error("failed to mark job failed", "error", err)
	}
	logger.Warn("clip job failed", "kind", genai.KindOf(cause), "error", cause)

	if genai.IsUnauthorized(cause) && r.creds != nil {
		if err := r.creds.PromptForCredential(ctx); err != nil && !errors.Is(err, genai.ErrCredentialRequired) {
			logger.Warn("failed to request a new credential", "error", err)
		}
	}
	if sink == nil {
		return
	}
	if err := sink.ClipFailed(job.SegmentIndex, cause); err != nil {
		logger.Debug("session did not take clip failure", "error", err)
	}
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
