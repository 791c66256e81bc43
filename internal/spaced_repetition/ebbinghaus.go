package spaced_repetition

import (
	"time"

	"github.com/example/ebbinghausbot/pkg/models"
)

// Intervals are the offsets from the study time at which a topic is reviewed.
// The order defines repetition indices and must never change.
var Intervals = []time.Duration{
	30 * time.Minute,
	24 * time.Hour,
	2 * 24 * time.Hour,
	8 * 24 * time.Hour,
	30 * 24 * time.Hour,
}

// RepetitionCount is the number of reviews every topic gets
var RepetitionCount = len(Intervals)

// DeriveSchedule returns the due dates for a topic studied at studyDate
func DeriveSchedule(studyDate time.Time) []time.Time {
	dates := make([]time.Time, len(Intervals))
	for i, interval := range Intervals {
		dates[i] = studyDate.Add(interval)
	}
	return dates
}

// NewRepetitions builds the pending repetitions for a topic studied at studyDate
func NewRepetitions(studyDate time.Time) []models.Repetition {
	dates := DeriveSchedule(studyDate)
	reps := make([]models.Repetition, len(dates))
	for i, due := range dates {
		reps[i] = models.Repetition{DueDate: due}
	}
	return reps
}
