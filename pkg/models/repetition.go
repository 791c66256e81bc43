package models

import "time"

// Repetition represents a scheduled review of a topic.
// Its position inside Topic.Repetitions is part of its identity.
type Repetition struct {
	DueDate   time.Time `json:"date"`
	Completed bool      `json:"completed"`
}

// JobKey identifies a pending reminder for one repetition
type JobKey struct {
	UserID          UserID
	TopicIndex      int
	RepetitionIndex int
}
