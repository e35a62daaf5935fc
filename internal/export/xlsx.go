package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iksnae/skillswap/internal"
)

const (
	messagesSheet = "Messages"
	sessionsSheet = "Sessions"
)

// XLSXExporter writes a workbook with a Messages and a Sessions sheet
type XLSXExporter struct{}

// Export exports a transcript to an Excel workbook
func (e *XLSXExporter) Export(t *internal.Transcript, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", messagesSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(sessionsSheet); err != nil {
		return err
	}

	messageRows := make([][]interface{}, 0, len(t.Messages))
	for _, m := range t.Messages {
		messageRows = append(messageRows, []interface{}{m.Timestamp, string(m.Direction), m.Sender, m.Content})
	}
	if err := writeSheet(f, messagesSheet, []string{"Timestamp", "Direction", "Sender", "Content"}, messageRows); err != nil {
		return err
	}

	sessionRows := make([][]interface{}, 0, len(t.Sessions))
	for _, s := range t.Sessions {
		sessionRows = append(sessionRows, []interface{}{
			s.ID,
			s.ScheduledFor.UTC().Format(time.RFC3339),
			s.RequestedSkill,
			s.OfferedSkill,
			s.DurationMinutes,
			string(s.Status),
		})
	}
	if err := writeSheet(f, sessionsSheet, []string{"ID", "Scheduled For", "Requested", "Offered", "Minutes", "Status"}, sessionRows); err != nil {
		return err
	}

	if idx, err := f.GetSheetIndex(messagesSheet); err == nil {
		f.SetActiveSheet(idx)
	}
	_, err := f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("sheet %s: %w", sheet, err)
			}
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *XLSXExporter) Extension() string {
	return "xlsx"
}
