package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/ebbinghausbot/internal/spaced_repetition"
	"github.com/example/ebbinghausbot/pkg/models"
	"go.uber.org/zap"
)

// Persister loads and saves every user's topics
type Persister interface {
	Load(ctx context.Context) (map[models.UserID][]models.Topic, error)
	Save(ctx context.Context, topics map[models.UserID][]models.Topic) error
}

// Store keeps every user's topics in memory and is the single source of truth
// for review state. Its lock also guards the reminder job table.
type Store struct {
	mu     sync.RWMutex
	topics map[models.UserID][]models.Topic

	saveMu    sync.Mutex
	persister Persister
	logger    *zap.Logger
}

// NewStore creates an empty store backed by persister
func NewStore(persister Persister, logger *zap.Logger) *Store {
	return &Store{
		topics:    make(map[models.UserID][]models.Topic),
		persister: persister,
		logger:    logger,
	}
}

// Load replaces the in-memory state with the persisted one.
// A failed load leaves the store empty.
func (s *Store) Load(ctx context.Context) {
	topics, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load topics, starting with an empty store", zap.Error(err))
		topics = nil
	}

	loaded := make(map[models.UserID][]models.Topic, len(topics))
	for userID, list := range topics {
		copied := make([]models.Topic, len(list))
		for i, topic := range list {
			copied[i] = topic.Clone()
		}
		loaded[userID] = copied
	}

	s.mu.Lock()
	s.topics = loaded
	s.mu.Unlock()

	s.logger.Info("topics loaded", zap.Int("users", len(loaded)))
}

// AddTopic appends a new topic for the user and returns its index
// together with the repetitions that need reminders.
func (s *Store) AddTopic(ctx context.Context, userID models.UserID, name string, studyDate time.Time) (int, []models.Repetition) {
	topic := models.Topic{
		Name:        name,
		StudyDate:   studyDate,
		Repetitions: spaced_repetition.NewRepetitions(studyDate),
	}

	s.mu.Lock()
	index := len(s.topics[userID])
	s.topics[userID] = append(s.topics[userID], topic)
	s.mu.Unlock()

	s.logger.Info("topic added",
		zap.Int64("user_id", int64(userID)),
		zap.Int("topic_index", index),
		zap.String("topic", name))

	s.save(ctx)
	return index, topic.Clone().Repetitions
}

// ListTopics returns a copy of the user's topics. Unknown users get an empty list.
func (s *Store) ListTopics(userID models.UserID) []models.Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.topics[userID]
	result := make([]models.Topic, len(list))
	for i, topic := range list {
		result[i] = topic.Clone()
	}
	return result
}

// CompleteRepetition marks a repetition as done. Marking an already completed
// repetition succeeds again without further effect.
func (s *Store) CompleteRepetition(ctx context.Context, userID models.UserID, topicIndex, repetitionIndex int) (string, time.Time, error) {
	s.mu.Lock()
	list := s.topics[userID]
	if topicIndex < 0 || topicIndex >= len(list) {
		s.mu.Unlock()
		return "", time.Time{}, fmt.Errorf("topic %d of user %d: %w", topicIndex+1, userID, ErrOutOfRange)
	}
	topic := &list[topicIndex]
	if repetitionIndex < 0 || repetitionIndex >= len(topic.Repetitions) {
		s.mu.Unlock()
		return "", time.Time{}, fmt.Errorf("repetition %d of topic %d: %w", repetitionIndex+1, topicIndex+1, ErrOutOfRange)
	}
	rep := &topic.Repetitions[repetitionIndex]
	alreadyDone := rep.Completed
	rep.Completed = true
	name, due := topic.Name, rep.DueDate
	s.mu.Unlock()

	if !alreadyDone {
		s.logger.Info("repetition completed",
			zap.Int64("user_id", int64(userID)),
			zap.Int("topic_index", topicIndex),
			zap.Int("repetition_index", repetitionIndex))
	}

	s.save(ctx)
	return name, due, nil
}

// UserCount returns the number of users with stored topics
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.topics)
}

// Snapshot returns a deep copy of every user's topics
func (s *Store) Snapshot() map[models.UserID][]models.Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() map[models.UserID][]models.Topic {
	snapshot := make(map[models.UserID][]models.Topic, len(s.topics))
	for userID, list := range s.topics {
		copied := make([]models.Topic, len(list))
		for i, topic := range list {
			copied[i] = topic.Clone()
		}
		snapshot[userID] = copied
	}
	return snapshot
}

// save writes the current state. The snapshot is taken after saveMu is held
// so a later save never writes older data than an earlier one.
func (s *Store) save(ctx context.Context) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot := s.Snapshot()
	if err := s.persister.Save(ctx, snapshot); err != nil {
		s.logger.Error("failed to save topics", zap.Error(err))
	}
}
