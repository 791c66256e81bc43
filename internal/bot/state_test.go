package bot

import (
	"sync"
	"testing"
	"time"

	"github.com/example/ebbinghausbot/internal/scheduler"
	"github.com/example/ebbinghausbot/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestStateStore_DefaultsToNone(t *testing.T) {
	states := NewStateStore(0)

	assert.Equal(t, Conversation{}, states.Get(42))
	assert.Equal(t, StateNone, states.Get(42).Mode)
	assert.Equal(t, 0, states.Active())
}

func TestStateStore_SetAndReset(t *testing.T) {
	states := NewStateStore(0)

	states.Set(1, Conversation{Mode: StateAwaitingDate, PendingTopic: "Sets"})
	states.Set(2, Conversation{Mode: StateAwaitingTopic})

	assert.Equal(t, "Sets", states.Get(1).PendingTopic)
	assert.Equal(t, 2, states.Active())

	states.Reset(1)
	assert.Equal(t, StateNone, states.Get(1).Mode)
	assert.Equal(t, 1, states.Active())

	states.Set(2, Conversation{Mode: StateNone})
	assert.Equal(t, 0, states.Active())
}

func TestStateStore_IdleExpiry(t *testing.T) {
	states := NewStateStore(50 * time.Millisecond)
	states.Set(1, Conversation{Mode: StateAwaitingTopic})

	assert.Eventually(t, func() bool {
		return states.Get(1).Mode == StateNone
	}, time.Second, 10*time.Millisecond)
}

func TestStateStore_LockSerializesUser(t *testing.T) {
	states := NewStateStore(0)
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := states.Lock(9)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{StateNone, "none"},
		{StateAwaitingTopic, "awaiting_topic"},
		{StateAwaitingDate, "awaiting_date"},
		{StateAwaitingTopicChoice, "awaiting_topic_choice"},
		{StateAwaitingRepetitionChoice, "awaiting_repetition_choice"},
		{Mode(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mode.String())
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantCmd bool
	}{
		{"plain", "/done", "done", true},
		{"mention", "/list@EbbinghausBot", "list", true},
		{"upper case", "/START", "start", true},
		{"with args", "/newtopic Algebra", "newtopic", true},
		{"padded", "  /list  ", "list", true},
		{"text", "Algebra", "", false},
		{"slash inside", "a/b", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCommand(tt.text)
			assert.Equal(t, tt.wantCmd, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatReminder(t *testing.T) {
	due := time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)
	text := formatReminder(scheduler.Reminder{
		UserID:           models.UserID(5),
		TopicName:        "Probability",
		DueDate:          due,
		RepetitionNumber: 2,
	}, time.UTC)

	assert.Contains(t, text, "'Probability'")
	assert.Contains(t, text, "2/5")
	assert.Contains(t, text, "01.03.2025 18:30")
	assert.Contains(t, text, "/done")
}

func TestFormatTopicAdded_UsesLocation(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	reps := []models.Repetition{{DueDate: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}}

	text := formatTopicAdded("Optics", reps, loc)

	assert.Contains(t, text, "1. 01.03.2025 12:00 ⏳")
}
