package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/ebbinghausbot/internal/scheduler"
	"github.com/example/ebbinghausbot/pkg/models"
	"go.uber.org/zap"
)

// ErrParse is returned when user input cannot be read as a date or a number
var ErrParse = errors.New("parse error")

// TopicStore is the part of the topic store the dialog mutates
type TopicStore interface {
	AddTopic(ctx context.Context, userID models.UserID, name string, studyDate time.Time) (int, []models.Repetition)
	ListTopics(userID models.UserID) []models.Topic
	CompleteRepetition(ctx context.Context, userID models.UserID, topicIndex, repetitionIndex int) (string, time.Time, error)
}

// ReminderScheduler is the part of the reminder scheduler the dialog drives
type ReminderScheduler interface {
	ScheduleOne(key models.JobKey, due time.Time) bool
	Cancel(key models.JobKey) bool
}

// Dialog turns user messages into topic store mutations and reply texts
type Dialog struct {
	store     TopicStore
	reminders ReminderScheduler
	states    *StateStore
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewDialog creates the conversation handler. Dates are read and shown in loc.
func NewDialog(store TopicStore, reminders ReminderScheduler, states *StateStore, loc *time.Location, logger *zap.Logger) *Dialog {
	if loc == nil {
		loc = time.Local
	}
	return &Dialog{
		store:     store,
		reminders: reminders,
		states:    states,
		logger:    logger,
		location:  loc,
		now:       time.Now,
	}
}

// Handle processes one incoming message and returns the reply text
func (d *Dialog) Handle(ctx context.Context, userID models.UserID, text string) string {
	unlock := d.states.Lock(userID)
	defer unlock()

	if command, ok := parseCommand(text); ok {
		return d.handleCommand(ctx, userID, command)
	}
	return d.handleText(ctx, userID, text)
}

// parseCommand extracts "newtopic" from "/newtopic@SomeBot args"
func parseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	command := strings.Fields(text)[0][1:]
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command), true
}

func (d *Dialog) handleCommand(ctx context.Context, userID models.UserID, command string) string {
	switch command {
	case "start":
		return msgWelcome
	case "newtopic":
		d.states.Set(userID, Conversation{Mode: StateAwaitingTopic})
		return msgAskTopic
	case "list":
		return d.listTopics(userID)
	case "done":
		return d.startCompletion(userID)
	default:
		return msgUnknownCommand
	}
}

func (d *Dialog) handleText(ctx context.Context, userID models.UserID, text string) string {
	conv := d.states.Get(userID)

	switch conv.Mode {
	case StateAwaitingTopic:
		d.states.Set(userID, Conversation{Mode: StateAwaitingDate, PendingTopic: text})
		return msgAskDate
	case StateAwaitingDate:
		return d.addTopic(ctx, userID, conv, text)
	case StateAwaitingTopicChoice:
		return d.chooseTopic(userID, text)
	case StateAwaitingRepetitionChoice:
		return d.chooseRepetition(ctx, userID, conv, text)
	default:
		return msgUseCommands
	}
}

func (d *Dialog) addTopic(ctx context.Context, userID models.UserID, conv Conversation, text string) string {
	studyDate, err := d.parseStudyDate(text)
	if err != nil {
		d.logger.Debug("rejected study date", zap.Int64("user_id", int64(userID)), zap.Error(err))
		return msgBadDate
	}

	topicIndex, reps := d.store.AddTopic(ctx, userID, conv.PendingTopic, studyDate)
	for i, rep := range reps {
		key := models.JobKey{UserID: userID, TopicIndex: topicIndex, RepetitionIndex: i}
		d.reminders.ScheduleOne(key, rep.DueDate)
	}

	d.states.Reset(userID)
	return formatTopicAdded(conv.PendingTopic, reps, d.location)
}

func (d *Dialog) parseStudyDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, nowWord) {
		return d.now(), nil
	}
	t, err := time.ParseInLocation(dateLayout, text, d.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", text, ErrParse)
	}
	return t, nil
}

func (d *Dialog) listTopics(userID models.UserID) string {
	topics := d.store.ListTopics(userID)
	if len(topics) == 0 {
		return msgNoTopics
	}
	return formatTopicList(topics, d.location)
}

func (d *Dialog) startCompletion(userID models.UserID) string {
	topics := d.store.ListTopics(userID)
	if len(topics) == 0 {
		d.states.Reset(userID)
		return msgNothingToMark
	}
	d.states.Set(userID, Conversation{Mode: StateAwaitingTopicChoice})
	return formatTopicChoice(topics)
}

func (d *Dialog) chooseTopic(userID models.UserID, text string) string {
	n, err := parseChoice(text)
	if err != nil {
		return msgNotANumber
	}

	topics := d.store.ListTopics(userID)
	if n < 1 || n > len(topics) {
		return msgBadTopic
	}

	d.states.Set(userID, Conversation{Mode: StateAwaitingRepetitionChoice, SelectedTopic: n - 1})
	return formatRepetitionChoice(topics[n-1], d.location)
}

func (d *Dialog) chooseRepetition(ctx context.Context, userID models.UserID, conv Conversation, text string) string {
	n, err := parseChoice(text)
	if err != nil {
		return msgNotANumber
	}

	topics := d.store.ListTopics(userID)
	if conv.SelectedTopic >= len(topics) {
		d.logger.Error("selected topic vanished",
			zap.Int64("user_id", int64(userID)),
			zap.Int("topic_index", conv.SelectedTopic))
		d.states.Reset(userID)
		return msgInternalFailure
	}
	if n < 1 || n > len(topics[conv.SelectedTopic].Repetitions) {
		return msgBadRepetition
	}

	name, due, err := d.store.CompleteRepetition(ctx, userID, conv.SelectedTopic, n-1)
	if errors.Is(err, scheduler.ErrOutOfRange) {
		return msgBadRepetition
	}
	if err != nil {
		d.logger.Error("failed to complete repetition", zap.Int64("user_id", int64(userID)), zap.Error(err))
		return msgInternalFailure
	}

	d.reminders.Cancel(models.JobKey{UserID: userID, TopicIndex: conv.SelectedTopic, RepetitionIndex: n - 1})
	d.states.Reset(userID)
	return formatRepetitionDone(n, name, due, d.location)
}

func parseChoice(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("choice %q: %w", text, ErrParse)
	}
	return n, nil
}
