// Package scheduler re-invokes the turn runner on cron expressions, so
// recurring prompts ("summarize my inbox every morning") run without a user
// present. Each job owns a stable conversation id derived from its job id,
// giving scheduled runs continuity across fires.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/turnwise/turnwise/logging"
	"github.com/turnwise/turnwise/runner"
)

// Job describes one recurring agent task.
type Job struct {
	// ID names the job; re-adding an id replaces the previous schedule.
	ID string `json:"id"`
	// Prompt is the user input submitted on every fire.
	Prompt string `json:"prompt"`
	// Cron is a standard five-field cron expression, e.g. "0 9 * * *".
	Cron string `json:"cron"`
	// Team optionally pins the team for scheduled runs.
	Team string `json:"team,omitempty"`
}

// Options configure a Scheduler.
type Options struct {
	// Logger for job lifecycle logging.
	Logger logging.Logger
	// RunTimeout bounds a single scheduled turn (default 2 minutes).
	RunTimeout time.Duration
}

// Scheduler fires runner turns on cron schedules.
type Scheduler struct {
	runner *runner.Runner
	cron   *cron.Cron
	logger logging.Logger

	timeout time.Duration

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New constructs a stopped scheduler; call Start to begin firing.
func New(r *runner.Runner, optFns ...func(o *Options)) *Scheduler {
	opts := Options{
		Logger:     logging.NoOpLogger{},
		RunTimeout: 2 * time.Minute,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Scheduler{
		runner:  r,
		cron:    cron.New(),
		logger:  opts.Logger,
		timeout: opts.RunTimeout,
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers (or replaces) a job. The job's conversation id is
// "scheduled:<job id>" so successive fires share history.
func (s *Scheduler) Add(job Job) error {
	if job.ID == "" {
		return fmt.Errorf("job id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[job.ID]; ok {
		s.cron.Remove(existing)
		delete(s.entries, job.ID)
	}

	entryID, err := s.cron.AddFunc(job.Cron, func() { s.fire(job) })
	if err != nil {
		return fmt.Errorf("add job %s: %w", job.ID, err)
	}
	s.entries[job.ID] = entryID

	s.logger.Info("scheduler.job.added", "job_id", job.ID, "cron", job.Cron)
	return nil
}

// Remove drops a job by id and reports whether it existed.
func (s *Scheduler) Remove(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.entries[jobID]
	if !ok {
		return false
	}
	s.cron.Remove(entryID)
	delete(s.entries, jobID)
	return true
}

// Jobs returns the ids of all registered jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.entries))
	for id := range s.entries {
		out = append(out, id)
	}
	return out
}

// Start begins firing jobs on their schedules.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and returns once in-flight jobs finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) fire(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	opts := []func(o *runner.RunOptions){
		runner.WithConversationID("scheduled:" + job.ID),
	}
	if job.Team != "" {
		opts = append(opts, runner.WithTeamOverride(job.Team))
	}

	st, err := s.runner.Run(ctx, job.Prompt, opts...)
	if err != nil {
		s.logger.Error("scheduler.job.failed", "job_id", job.ID, "error", err.Error())
		return
	}
	s.logger.Info("scheduler.job.done", "job_id", job.ID, "answer_len", len(st.Answer))
}
