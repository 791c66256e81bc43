package database

import (
	"fmt"
	"strconv"
	"time"

	"github.com/example/ebbinghausbot/pkg/models"
)

// timestampLayout is ISO-8601 with microseconds and an explicit offset
const timestampLayout = "2006-01-02T15:04:05.999999-07:00"

// Older data files carry local timestamps without an offset
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999",
}

type repetitionRecord struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

type topicRecord struct {
	Topic       string             `json:"topic"`
	StudyDate   string             `json:"study_date"`
	Repetitions []repetitionRecord `json:"repetitions"`
}

func formatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

func encodeTopics(topics []models.Topic) []topicRecord {
	records := make([]topicRecord, len(topics))
	for i, topic := range topics {
		reps := make([]repetitionRecord, len(topic.Repetitions))
		for j, rep := range topic.Repetitions {
			reps[j] = repetitionRecord{Date: formatTimestamp(rep.DueDate), Completed: rep.Completed}
		}
		records[i] = topicRecord{
			Topic:       topic.Name,
			StudyDate:   formatTimestamp(topic.StudyDate),
			Repetitions: reps,
		}
	}
	return records
}

func decodeTopics(records []topicRecord) ([]models.Topic, error) {
	topics := make([]models.Topic, len(records))
	for i, record := range records {
		studyDate, err := parseTimestamp(record.StudyDate)
		if err != nil {
			return nil, fmt.Errorf("topic %q: study_date: %w", record.Topic, err)
		}
		reps := make([]models.Repetition, len(record.Repetitions))
		for j, rep := range record.Repetitions {
			due, err := parseTimestamp(rep.Date)
			if err != nil {
				return nil, fmt.Errorf("topic %q: repetition %d: %w", record.Topic, j+1, err)
			}
			reps[j] = models.Repetition{DueDate: due, Completed: rep.Completed}
		}
		topics[i] = models.Topic{Name: record.Topic, StudyDate: studyDate, Repetitions: reps}
	}
	return topics, nil
}

func encodeAll(all map[models.UserID][]models.Topic) map[string][]topicRecord {
	out := make(map[string][]topicRecord, len(all))
	for userID, topics := range all {
		out[strconv.FormatInt(int64(userID), 10)] = encodeTopics(topics)
	}
	return out
}

func decodeAll(raw map[string][]topicRecord) (map[models.UserID][]models.Topic, error) {
	out := make(map[models.UserID][]models.Topic, len(raw))
	for key, records := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", key, err)
		}
		topics, err := decodeTopics(records)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", id, err)
		}
		out[models.UserID(id)] = topics
	}
	return out, nil
}
