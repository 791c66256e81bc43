package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/ebbinghausbot/internal/spaced_repetition"
	"github.com/example/ebbinghausbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTopicStore struct {
	topics map[models.UserID][]models.Topic
}

func newFakeTopicStore() *fakeTopicStore {
	return &fakeTopicStore{topics: make(map[models.UserID][]models.Topic)}
}

func (s *fakeTopicStore) ListTopics(userID models.UserID) []models.Topic {
	return s.topics[userID]
}

func (s *fakeTopicStore) AddTopic(ctx context.Context, userID models.UserID, name string, studyDate time.Time) (int, []models.Repetition) {
	reps := spaced_repetition.NewRepetitions(studyDate)
	s.topics[userID] = append(s.topics[userID], models.Topic{Name: name, StudyDate: studyDate, Repetitions: reps})
	return len(s.topics[userID]) - 1, reps
}

func (s *fakeTopicStore) CompleteRepetition(ctx context.Context, userID models.UserID, topicIndex, repetitionIndex int) (string, time.Time, error) {
	topic := &s.topics[userID][topicIndex]
	topic.Repetitions[repetitionIndex].Completed = true
	return topic.Name, topic.Repetitions[repetitionIndex].DueDate, nil
}

func TestImportSchedule_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.xlsx")
	require.NoError(t, SaveSchedule(path, sampleTopics(), time.UTC))

	config := DefaultImportConfig(path)
	config.Location = time.UTC
	store := newFakeTopicStore()

	result, err := ImportSchedule(context.Background(), config, store)
	require.NoError(t, err)

	assert.Equal(t, 10, result.TotalProcessed)
	assert.Equal(t, 2, result.TopicsCreated)
	assert.Equal(t, 1, result.Completed)
	assert.Empty(t, result.Errors)

	want := sampleTopics()
	for userID, topics := range want {
		got := store.ListTopics(userID)
		require.Len(t, got, len(topics))
		assert.Equal(t, topics[0].Name, got[0].Name)
		assert.True(t, topics[0].StudyDate.Equal(got[0].StudyDate))
		for i := range topics[0].Repetitions {
			assert.Equal(t, topics[0].Repetitions[i].Completed, got[0].Repetitions[i].Completed)
		}
	}
}

func TestImportSchedule_SkipsExistingTopics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.xlsx")
	require.NoError(t, SaveSchedule(path, sampleTopics(), time.UTC))
	config := DefaultImportConfig(path)
	config.Location = time.UTC
	store := newFakeTopicStore()

	_, err := ImportSchedule(context.Background(), config, store)
	require.NoError(t, err)
	result, err := ImportSchedule(context.Background(), config, store)
	require.NoError(t, err)

	assert.Equal(t, 0, result.TopicsCreated)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, store.ListTopics(10), 1)
	assert.Len(t, store.ListTopics(20), 1)
}

func TestImportSchedule_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.csv")
	content := "User ID,Topic #,Topic,Studied,Repetition #,Due,Completed\n" +
		"5,1,Optics,01.02.2024 10:00,1,01.02.2024 10:30,true\n" +
		"5,1,Optics,01.02.2024 10:00,2,02.02.2024 10:00,false\n" +
		"\n" +
		"abc,1,Broken,01.02.2024 10:00,1,01.02.2024 10:30,false\n" +
		"6,1,Waves,yesterday,1,,false\n" +
		"7,1,\"Thermo, part 1\",03.02.2024 08:15,3,,TRUE\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config := DefaultImportConfig(path)
	config.Location = time.UTC
	store := newFakeTopicStore()

	result, err := ImportSchedule(context.Background(), config, store)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 2, result.TopicsCreated)
	assert.Equal(t, 2, result.Completed)
	assert.Len(t, result.Errors, 2)

	optics := store.ListTopics(5)
	require.Len(t, optics, 1)
	assert.True(t, optics[0].Repetitions[0].Completed)
	assert.False(t, optics[0].Repetitions[1].Completed)

	thermo := store.ListTopics(7)
	require.Len(t, thermo, 1)
	assert.Equal(t, "Thermo, part 1", thermo[0].Name)
	assert.True(t, thermo[0].Repetitions[2].Completed)
	assert.Empty(t, store.ListTopics(6))
}

func TestImportSchedule_MissingFile(t *testing.T) {
	_, err := ImportSchedule(context.Background(), DefaultImportConfig(filepath.Join(t.TempDir(), "nope.xlsx")), newFakeTopicStore())
	assert.Error(t, err)
}

func TestColumnToIndex(t *testing.T) {
	assert.Equal(t, 0, columnToIndex("A"))
	assert.Equal(t, 6, columnToIndex("g"))
	assert.Equal(t, 26, columnToIndex("AA"))
}
