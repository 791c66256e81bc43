package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/example/ebbinghausbot/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines where schedule rows are found in the source file
type ImportConfig struct {
	FilePath         string // Path to the Excel or CSV file
	SheetName        string // Name of the sheet to import
	StartRow         int    // The row to start importing from (1-based index)
	UserColumn       string // Column with the Telegram user ID
	TopicNumColumn   string // Column with the topic number within the user
	TopicColumn      string // Column with the topic name
	StudiedColumn    string // Column with the study date
	RepetitionColumn string // Column with the repetition number
	CompletedColumn  string // Column with the completed flag
	Location         *time.Location
}

// DefaultImportConfig matches the layout written by BuildSchedule
func DefaultImportConfig(path string) ImportConfig {
	return ImportConfig{
		FilePath:         path,
		SheetName:        SheetName,
		StartRow:         2,
		UserColumn:       "A",
		TopicNumColumn:   "B",
		TopicColumn:      "C",
		StudiedColumn:    "D",
		RepetitionColumn: "E",
		CompletedColumn:  "G",
		Location:         time.Local,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	TopicsCreated  int
	Completed      int
	Skipped        int
	Errors         []string
}

// TopicStore is the part of the topic store the importer fills
type TopicStore interface {
	ListTopics(userID models.UserID) []models.Topic
	AddTopic(ctx context.Context, userID models.UserID, name string, studyDate time.Time) (int, []models.Repetition)
	CompleteRepetition(ctx context.Context, userID models.UserID, topicIndex, repetitionIndex int) (string, time.Time, error)
}

// ImportSchedule reads schedule rows from an Excel or CSV file and adds the
// topics to store. Topics the user already has with the same name and study
// minute are skipped.
func ImportSchedule(ctx context.Context, config ImportConfig, store TopicStore) (*ImportResult, error) {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}

	var (
		rows [][]string
		err  error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	imp := &importer{
		config: config,
		store:  store,
		result: &ImportResult{Errors: make([]string, 0)},
		topics: make(map[topicRef]int),
	}
	for i, row := range rows {
		if i < config.StartRow-1 || isBlank(row) {
			continue
		}
		imp.result.TotalProcessed++
		if err := imp.processRow(ctx, row); err != nil {
			imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return imp.result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type topicRef struct {
	userID models.UserID
	number int
}

// skippedTopic marks a source topic that already exists in the store
const skippedTopic = -1

type importer struct {
	config ImportConfig
	store  TopicStore
	result *ImportResult
	// source topic -> index in the store, or skippedTopic
	topics map[topicRef]int
}

func (imp *importer) processRow(ctx context.Context, row []string) error {
	userID, err := strconv.ParseInt(cell(row, imp.config.UserColumn), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user ID %q", cell(row, imp.config.UserColumn))
	}
	number, err := strconv.Atoi(cell(row, imp.config.TopicNumColumn))
	if err != nil {
		return fmt.Errorf("invalid topic number %q", cell(row, imp.config.TopicNumColumn))
	}
	ref := topicRef{userID: models.UserID(userID), number: number}

	topicIndex, seen := imp.topics[ref]
	if !seen {
		topicIndex, err = imp.addTopic(ctx, ref.userID, row)
		if err != nil {
			return err
		}
		imp.topics[ref] = topicIndex
	}
	if topicIndex == skippedTopic {
		return nil
	}

	completed, _ := strconv.ParseBool(cell(row, imp.config.CompletedColumn))
	if !completed {
		return nil
	}
	repetition, err := strconv.Atoi(cell(row, imp.config.RepetitionColumn))
	if err != nil {
		return fmt.Errorf("invalid repetition number %q", cell(row, imp.config.RepetitionColumn))
	}
	if _, _, err := imp.store.CompleteRepetition(ctx, ref.userID, topicIndex, repetition-1); err != nil {
		return err
	}
	imp.result.Completed++
	return nil
}

func (imp *importer) addTopic(ctx context.Context, userID models.UserID, row []string) (int, error) {
	name := cell(row, imp.config.TopicColumn)
	if name == "" {
		return 0, fmt.Errorf("topic name cannot be empty")
	}
	studied, err := time.ParseInLocation(dateLayout, cell(row, imp.config.StudiedColumn), imp.config.Location)
	if err != nil {
		return 0, fmt.Errorf("invalid study date %q", cell(row, imp.config.StudiedColumn))
	}

	for _, existing := range imp.store.ListTopics(userID) {
		if existing.Name == name && existing.StudyDate.Truncate(time.Minute).Equal(studied) {
			imp.result.Skipped++
			return skippedTopic, nil
		}
	}

	index, _ := imp.store.AddTopic(ctx, userID, name, studied)
	imp.result.TopicsCreated++
	return index, nil
}

func cell(row []string, column string) string {
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
