package models

import "time"

// UserID identifies a Telegram user. Private chats share the same ID.
type UserID int64

// Topic represents a subject the user studied and its review schedule
type Topic struct {
	Name        string       `json:"topic"`
	StudyDate   time.Time    `json:"study_date"`
	Repetitions []Repetition `json:"repetitions"`
}

// CompletedCount returns how many repetitions of the topic are done
func (t Topic) CompletedCount() int {
	count := 0
	for _, rep := range t.Repetitions {
		if rep.Completed {
			count++
		}
	}
	return count
}

// Clone returns a deep copy so callers never share the repetitions slice
func (t Topic) Clone() Topic {
	reps := make([]Repetition, len(t.Repetitions))
	copy(reps, t.Repetitions)
	t.Repetitions = reps
	return t
}
