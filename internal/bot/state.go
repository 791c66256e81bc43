package bot

import (
	"strconv"
	"sync"
	"time"

	"github.com/example/ebbinghausbot/pkg/models"
	"github.com/patrickmn/go-cache"
)

// Mode is the step of a multi-step command a user is in
type Mode int

const (
	StateNone Mode = iota
	StateAwaitingTopic
	StateAwaitingDate
	StateAwaitingTopicChoice
	StateAwaitingRepetitionChoice
)

func (m Mode) String() string {
	switch m {
	case StateNone:
		return "none"
	case StateAwaitingTopic:
		return "awaiting_topic"
	case StateAwaitingDate:
		return "awaiting_date"
	case StateAwaitingTopicChoice:
		return "awaiting_topic_choice"
	case StateAwaitingRepetitionChoice:
		return "awaiting_repetition_choice"
	default:
		return "unknown"
	}
}

// Conversation is the per-user dialog state.
// PendingTopic is set only in StateAwaitingDate, SelectedTopic only in
// StateAwaitingRepetitionChoice.
type Conversation struct {
	Mode          Mode
	PendingTopic  string
	SelectedTopic int
}

// StateStore keeps dialog state per user. Entries in StateNone are not stored.
type StateStore struct {
	cache *cache.Cache
	locks sync.Map
}

// NewStateStore creates a state store. A positive idle timeout forgets
// unfinished dialogs after that long without input.
func NewStateStore(idleTimeout time.Duration) *StateStore {
	expiration := cache.NoExpiration
	var cleanup time.Duration
	if idleTimeout > 0 {
		expiration = idleTimeout
		cleanup = idleTimeout
	}
	return &StateStore{cache: cache.New(expiration, cleanup)}
}

// Get returns the user's conversation, StateNone if there is none
func (s *StateStore) Get(userID models.UserID) Conversation {
	if x, found := s.cache.Get(stateKey(userID)); found {
		return x.(Conversation)
	}
	return Conversation{}
}

// Set stores the conversation, dropping it when it is back in StateNone
func (s *StateStore) Set(userID models.UserID, conv Conversation) {
	if conv.Mode == StateNone {
		s.cache.Delete(stateKey(userID))
		return
	}
	s.cache.Set(stateKey(userID), conv, cache.DefaultExpiration)
}

// Reset returns the user to StateNone
func (s *StateStore) Reset(userID models.UserID) {
	s.cache.Delete(stateKey(userID))
}

// Active returns the number of users in the middle of a dialog
func (s *StateStore) Active() int {
	return s.cache.ItemCount()
}

// Lock serializes message handling for one user and returns the unlock func
func (s *StateStore) Lock(userID models.UserID) func() {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func stateKey(userID models.UserID) string {
	return strconv.FormatInt(int64(userID), 10)
}
