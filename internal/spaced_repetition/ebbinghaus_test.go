package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSchedule(t *testing.T) {
	studyDates := []time.Time{
		time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 23, 45, 0, 0, time.UTC),
		time.Date(2024, 2, 28, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600)),
	}

	for _, studyDate := range studyDates {
		t.Run(studyDate.String(), func(t *testing.T) {
			dates := DeriveSchedule(studyDate)
			require.Len(t, dates, 5)

			assert.Equal(t, studyDate.Add(30*time.Minute), dates[0])
			assert.Equal(t, studyDate.Add(24*time.Hour), dates[1])
			assert.Equal(t, studyDate.Add(48*time.Hour), dates[2])
			assert.Equal(t, studyDate.Add(8*24*time.Hour), dates[3])
			assert.Equal(t, studyDate.Add(30*24*time.Hour), dates[4])
		})
	}
}

func TestDeriveSchedule_Ordered(t *testing.T) {
	dates := DeriveSchedule(time.Now())
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i].After(dates[i-1]), "due date %d should follow %d", i, i-1)
	}
}

func TestNewRepetitions(t *testing.T) {
	studyDate := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

	reps := NewRepetitions(studyDate)
	require.Len(t, reps, RepetitionCount)

	for i, rep := range reps {
		assert.False(t, rep.Completed)
		assert.Equal(t, studyDate.Add(Intervals[i]), rep.DueDate)
	}
}
