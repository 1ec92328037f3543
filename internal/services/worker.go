package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/career-copilot/internal/config"
	"alfredoptarigan/career-copilot/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(appID uuid.UUID)
}

type worker struct {
	appRepo      repositories.ApplicationRepository
	generator    GeneratorService
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	logger       *logrus.Logger
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once

	// inFlight keeps the poller from queueing an application twice while it is still queued.
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewWorker(
	appRepo repositories.ApplicationRepository,
	generator GeneratorService,
	cfg config.WorkerConfig,
	logger *logrus.Logger,
) Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	return &worker{
		appRepo:      appRepo,
		generator:    generator,
		jobQueue:     make(chan uuid.UUID, queueSize),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		logger:       logger,
		stopChan:     make(chan struct{}),
		inFlight:     make(map[uuid.UUID]struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.WithField("concurrency", w.concurrency).Info("🚀 Starting worker")

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	w.logger.Info("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("🛑 Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		w.logger.Info("✅ Worker stopped")
	})
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(appID uuid.UUID) {
	w.mu.Lock()
	if _, ok := w.inFlight[appID]; ok {
		w.mu.Unlock()
		return
	}
	w.inFlight[appID] = struct{}{}
	w.mu.Unlock()

	select {
	case w.jobQueue <- appID:
		w.logger.WithField("application_id", appID).Info("📥 Job enqueued")
	case <-w.stopChan:
		w.release(appID)
		w.logger.WithField("application_id", appID).Warn("⚠️ Worker stopped, cannot enqueue job")
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.logger.WithField("worker", workerID)
	log.Debug("👷 Worker started processing jobs")

	for {
		select {
		case <-w.stopChan:
			log.Debug("👷 Worker stopped")
			return
		case <-ctx.Done():
			return
		case appID := <-w.jobQueue:
			jobLog := log.WithField("application_id", appID)
			jobLog.Info("👷 Processing job")
			if err := w.generator.GenerateApplication(ctx, appID); err != nil {
				jobLog.WithError(err).Error("❌ Job failed")
			} else {
				jobLog.Info("✅ Job completed")
			}
			w.release(appID)
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.WithField("interval", w.pollInterval).Debug("🔄 Starting pending jobs poller")

	for {
		select {
		case <-w.stopChan:
			w.logger.Debug("🔄 Pending jobs poller stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.appRepo.FindPendingJobs(10)
			if err != nil {
				w.logger.WithError(err).Warn("⚠️ Failed to fetch pending jobs")
				continue
			}

			if len(pendingJobs) > 0 {
				w.logger.WithField("count", len(pendingJobs)).Info("📋 Found pending jobs")
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}

func (w *worker) release(appID uuid.UUID) {
	w.mu.Lock()
	delete(w.inFlight, appID)
	w.mu.Unlock()
}
