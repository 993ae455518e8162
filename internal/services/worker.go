package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/models"
)

const (
	summaryWorkers    = 2
	summaryQueueSize  = 64
	summaryJobTimeout = 2 * time.Minute
)

// SummaryWorker generates summaries off the request path. Jobs are
// pollable by ID; workers carry their own context rather than the
// triggering request's.
type SummaryWorker struct {
	service *SummaryService
	logger  *logrus.Logger

	mu    sync.RWMutex
	jobs  map[string]*models.SummaryJob
	queue chan string

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewSummaryWorker(service *SummaryService, logger *logrus.Logger) *SummaryWorker {
	w := &SummaryWorker{
		service: service,
		logger:  logger,
		jobs:    make(map[string]*models.SummaryJob),
		queue:   make(chan string, summaryQueueSize),
		stop:    make(chan struct{}),
	}
	for i := 0; i < summaryWorkers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	return w
}

// Enqueue schedules a summary generation and returns the pollable job
// ID. A full queue fails the job immediately instead of blocking the
// caller.
func (w *SummaryWorker) Enqueue(recordID uint) *models.SummaryJob {
	job := &models.SummaryJob{
		ID:       uuid.New().String(),
		RecordID: recordID,
		Status:   models.SummaryJobPending,
	}

	w.mu.Lock()
	w.jobs[job.ID] = job
	w.mu.Unlock()

	select {
	case w.queue <- job.ID:
	default:
		w.setResult(job.ID, models.SummaryJobFailed, "", "summary queue is full")
	}
	return w.snapshot(job.ID)
}

// Get returns the current state of a job.
func (w *SummaryWorker) Get(jobID string) (*models.SummaryJob, bool) {
	w.mu.RLock()
	_, ok := w.jobs[jobID]
	w.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return w.snapshot(jobID), true
}

// Close drains the workers. Queued jobs that never ran stay pending.
func (w *SummaryWorker) Close() {
	close(w.stop)
	w.wg.Wait()
}

func (w *SummaryWorker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			return
		case jobID := <-w.queue:
			w.process(jobID)
		}
	}
}

func (w *SummaryWorker) process(jobID string) {
	w.mu.Lock()
	job, ok := w.jobs[jobID]
	if !ok || job.Status != models.SummaryJobPending {
		w.mu.Unlock()
		return
	}
	job.Status = models.SummaryJobRunning
	recordID := job.RecordID
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), summaryJobTimeout)
	defer cancel()

	summary, err := w.service.Summarize(ctx, recordID)
	if err != nil {
		w.logger.WithError(err).WithField("record_id", recordID).Error("Background summary generation failed")
		w.setResult(jobID, models.SummaryJobFailed, "", "summary generation failed")
		return
	}
	w.setResult(jobID, models.SummaryJobDone, summary, "")
}

func (w *SummaryWorker) setResult(jobID string, status models.SummaryJobStatus, summary, errMsg string) {
	w.mu.Lock()
	if job, ok := w.jobs[jobID]; ok {
		job.Status = status
		job.Summary = summary
		job.Error = errMsg
	}
	w.mu.Unlock()
}

func (w *SummaryWorker) snapshot(jobID string) *models.SummaryJob {
	w.mu.RLock()
	defer w.mu.RUnlock()
	job, ok := w.jobs[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}
