package scheduler

import (
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	cron "github.com/robfig/cron/v3"
)

// Job represents a scheduled job that can be executed
type Job interface {
	Execute() error
	Name() string
}

// FuncJob adapts a plain function to the Job interface
type FuncJob struct {
	JobName string
	Fn      func() error
}

// Name returns the job name
func (j *FuncJob) Name() string {
	return j.JobName
}

// Execute runs the wrapped function
func (j *FuncJob) Execute() error {
	if j.Fn == nil {
		return fmt.Errorf("no execute function provided for %s", j.JobName)
	}
	return j.Fn()
}

// CronScheduler manages cron jobs. A job never overlaps with its own previous run.
type CronScheduler struct {
	cron    *cron.Cron
	jobs    map[string]cron.EntryID
	mutex   sync.RWMutex
	running bool
}

// NewCronScheduler creates a new cron scheduler
func NewCronScheduler() *CronScheduler {
	return &CronScheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		jobs: make(map[string]cron.EntryID),
	}
}

// ValidateSchedule checks a standard five-field expression or a descriptor such as @hourly
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// AddJob adds a job with the given schedule, replacing any job with the same name
func (s *CronScheduler) AddJob(schedule string, job Job) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	name := job.Name()
	if entryID, exists := s.jobs[name]; exists {
		s.cron.Remove(entryID)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		if err := job.Execute(); err != nil {
			log.Errorf("Scheduled job %s failed: %v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	s.jobs[name] = entryID
	log.Debugf("Scheduled job %s with %q", name, schedule)
	return nil
}

// RemoveJob removes a job by name
func (s *CronScheduler) RemoveJob(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entryID, exists := s.jobs[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}
}

// HasJob reports whether a job with the given name is scheduled
func (s *CronScheduler) HasJob(name string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, exists := s.jobs[name]
	return exists
}

// Start starts the scheduler
func (s *CronScheduler) Start() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		s.cron.Start()
		s.running = true
	}
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *CronScheduler) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	ctx := s.cron.Stop()
	s.running = false
	s.mutex.Unlock()

	<-ctx.Done()
}

// IsRunning returns whether the scheduler is running
func (s *CronScheduler) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}
