package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/example/ebbinghausbot/pkg/models"
	"go.uber.org/zap"
)

// Reminder is what gets delivered when a repetition falls due
type Reminder struct {
	UserID           models.UserID
	TopicName        string
	DueDate          time.Time
	RepetitionNumber int
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, reminder Reminder) error
}

// Scheduler keeps one pending job per open repetition and fires it at its due time.
// The job table is guarded by the store lock, so completing a repetition and
// firing its reminder never interleave.
type Scheduler struct {
	store    *Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	queue jobQueue
	jobs  map[models.JobKey]*job

	wake   chan struct{}
	stopCh chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler over store. Call Start to begin firing jobs.
func New(store *Store, notifier Notifier, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		jobs:     make(map[models.JobKey]*job),
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the firing loop in a background goroutine
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("reminder scheduler started")
		s.run()
		s.logger.Info("reminder scheduler stopped")
	}()
}

// Stop terminates the firing loop and aborts in-flight dispatches
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.cancel()
	s.wg.Wait()
}

// ScheduleAll drops every pending job and rebuilds the table from the store.
// It returns the number of jobs scheduled.
func (s *Scheduler) ScheduleAll() int {
	s.store.mu.Lock()
	s.queue = nil
	s.jobs = make(map[models.JobKey]*job)

	now := s.now()
	for userID, topics := range s.store.topics {
		for ti, topic := range topics {
			for ri, rep := range topic.Repetitions {
				if rep.Completed {
					continue
				}
				key := models.JobKey{UserID: userID, TopicIndex: ti, RepetitionIndex: ri}
				s.scheduleLocked(key, rep.DueDate, now)
			}
		}
	}
	count := len(s.jobs)
	s.store.mu.Unlock()

	s.notify()
	s.logger.Info("reminders resynced", zap.Int("pending", count))
	return count
}

// ScheduleOne adds a job for one repetition. Due dates that are not in the
// future are skipped and false is returned.
func (s *Scheduler) ScheduleOne(key models.JobKey, due time.Time) bool {
	s.store.mu.Lock()
	scheduled := s.scheduleLocked(key, due, s.now())
	s.store.mu.Unlock()

	if scheduled {
		s.notify()
	}
	return scheduled
}

// Cancel removes the job for key if it is still pending
func (s *Scheduler) Cancel(key models.JobKey) bool {
	s.store.mu.Lock()
	j, ok := s.jobs[key]
	if ok {
		heap.Remove(&s.queue, j.index)
		delete(s.jobs, key)
	}
	s.store.mu.Unlock()

	if ok {
		s.logger.Debug("reminder cancelled",
			zap.Int64("user_id", int64(key.UserID)),
			zap.Int("topic_index", key.TopicIndex),
			zap.Int("repetition_index", key.RepetitionIndex))
		s.notify()
	}
	return ok
}

// Pending returns the number of scheduled jobs
func (s *Scheduler) Pending() int {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return len(s.jobs)
}

// IsScheduled reports whether a job exists for key
func (s *Scheduler) IsScheduled(key models.JobKey) bool {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	_, ok := s.jobs[key]
	return ok
}

func (s *Scheduler) scheduleLocked(key models.JobKey, due, now time.Time) bool {
	if !due.After(now) {
		return false
	}
	if existing, ok := s.jobs[key]; ok {
		if existing.due.Equal(due) {
			return true
		}
		// A key maps to exactly one repetition, so a second due date means the
		// topic list was reordered or rewritten behind the store's back.
		s.logger.Error("reminder key collision, keeping existing job",
			zap.Int64("user_id", int64(key.UserID)),
			zap.Int("topic_index", key.TopicIndex),
			zap.Int("repetition_index", key.RepetitionIndex),
			zap.Time("existing_due", existing.due),
			zap.Time("new_due", due),
			zap.Stack("stack"))
		return false
	}

	j := &job{key: key, due: due}
	heap.Push(&s.queue, j)
	s.jobs[key] = j
	return true
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run() {
	for {
		s.fireDue()

		var timer *time.Timer
		var timerC <-chan time.Time
		s.store.mu.RLock()
		if next, ok := s.queue.peek(); ok {
			timer = time.NewTimer(next.due.Sub(s.now()))
			timerC = timer.C
		}
		s.store.mu.RUnlock()

		select {
		case <-timerC:
		case <-s.wake:
		case <-s.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// fireDue pops every job whose due time has passed and dispatches it.
// Jobs leave the table before dispatch, so a concurrent Cancel is a no-op.
func (s *Scheduler) fireDue() {
	var reminders []Reminder

	s.store.mu.Lock()
	now := s.now()
	for {
		next, ok := s.queue.peek()
		if !ok || next.due.After(now) {
			break
		}
		heap.Pop(&s.queue)
		delete(s.jobs, next.key)

		if reminder, ok := s.reminderLocked(next.key); ok {
			reminders = append(reminders, reminder)
		}
	}
	s.store.mu.Unlock()

	for _, reminder := range reminders {
		s.dispatch(reminder)
	}
}

func (s *Scheduler) reminderLocked(key models.JobKey) (Reminder, bool) {
	topics := s.store.topics[key.UserID]
	if key.TopicIndex >= len(topics) {
		return Reminder{}, false
	}
	topic := topics[key.TopicIndex]
	if key.RepetitionIndex >= len(topic.Repetitions) {
		return Reminder{}, false
	}
	rep := topic.Repetitions[key.RepetitionIndex]
	if rep.Completed {
		return Reminder{}, false
	}
	return Reminder{
		UserID:           key.UserID,
		TopicName:        topic.Name,
		DueDate:          rep.DueDate,
		RepetitionNumber: key.RepetitionIndex + 1,
	}, true
}

func (s *Scheduler) dispatch(reminder Reminder) {
	if err := s.notifier.SendReminder(s.ctx, reminder); err != nil {
		s.logger.Error("failed to send reminder, dropping it",
			zap.Int64("user_id", int64(reminder.UserID)),
			zap.String("topic", reminder.TopicName),
			zap.Int("repetition", reminder.RepetitionNumber),
			zap.Error(err))
		return
	}
	s.logger.Info("reminder sent",
		zap.Int64("user_id", int64(reminder.UserID)),
		zap.String("topic", reminder.TopicName),
		zap.Int("repetition", reminder.RepetitionNumber))
}
