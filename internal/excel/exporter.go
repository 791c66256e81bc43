package excel

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/example/ebbinghausbot/pkg/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the worksheet holding the schedule
const SheetName = "Schedule"

const dateLayout = "02.01.2006 15:04"

var header = []interface{}{"User ID", "Topic #", "Topic", "Studied", "Repetition #", "Due", "Completed", "Progress"}

// BuildSchedule creates a workbook with one row per repetition, users in
// ascending ID order and topics in insertion order.
func BuildSchedule(topics map[models.UserID][]models.Topic, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", SheetName)

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	userIDs := make([]models.UserID, 0, len(topics))
	for userID := range topics {
		userIDs = append(userIDs, userID)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	row := 2
	for _, userID := range userIDs {
		for ti, topic := range topics[userID] {
			progress := fmt.Sprintf("%d/%d", topic.CompletedCount(), len(topic.Repetitions))
			for ri, rep := range topic.Repetitions {
				cell, err := excelize.CoordinatesToCellName(1, row)
				if err != nil {
					f.Close()
					return nil, err
				}
				values := []interface{}{
					int64(userID),
					ti + 1,
					topic.Name,
					topic.StudyDate.In(loc).Format(dateLayout),
					ri + 1,
					rep.DueDate.In(loc).Format(dateLayout),
					rep.Completed,
					progress,
				}
				if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to write row %d: %w", row, err)
				}
				row++
			}
		}
	}

	if err := f.SetColWidth(SheetName, "C", "C", 40); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "D", "F", 18); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// WriteSchedule writes the schedule workbook to w
func WriteSchedule(w io.Writer, topics map[models.UserID][]models.Topic, loc *time.Location) error {
	f, err := BuildSchedule(topics, loc)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveSchedule writes the schedule workbook to path
func SaveSchedule(path string, topics map[models.UserID][]models.Topic, loc *time.Location) error {
	f, err := BuildSchedule(topics, loc)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
