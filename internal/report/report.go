// Package report renders run history and change summaries to XLSX for
// the people who review updates without database access.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/KunevinnDokus/tourism-database-system/internal/ledger"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// History is the ledger read surface the writer needs.
type History interface {
	RecentRuns(ctx context.Context, days, limit int) ([]domain.UpdateRun, error)
	ChangesByRun(ctx context.Context, runID uuid.UUID) (map[string][]domain.ChangelogEntry, error)
	ChangeSummary(ctx context.Context, runID *uuid.UUID, days int) (*ledger.ChangeSummaryReport, error)
}

// Writer builds XLSX workbooks from ledger history.
type Writer struct {
	history History
}

func NewWriter(history History) *Writer {
	return &Writer{history: history}
}

// WriteRunHistory writes a workbook with a run overview sheet and a
// per-table change summary sheet covering the given day window.
func (w *Writer) WriteRunHistory(ctx context.Context, path string, days int) error {
	runs, err := w.history.RecentRuns(ctx, days, 500)
	if err != nil {
		return fmt.Errorf("failed to load run history: %w", err)
	}
	summary, err := w.history.ChangeSummary(ctx, nil, days)
	if err != nil {
		return fmt.Errorf("failed to load change summary: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeRunsSheet(f, runs); err != nil {
		return err
	}
	if err := w.writeSummarySheet(f, summary); err != nil {
		return err
	}
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// WriteRunDetail writes one run's full changelog, one sheet per table.
func (w *Writer) WriteRunDetail(ctx context.Context, path string, runID uuid.UUID) error {
	changes, err := w.history.ChangesByRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load changes for run %s: %w", runID, err)
	}
	if len(changes) == 0 {
		return fmt.Errorf("run %s has no recorded changes", runID)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	first := true
	for _, table := range domain.CoreTables {
		entries, ok := changes[table]
		if !ok {
			continue
		}

		if first {
			f.SetSheetName("Sheet1", table)
			first = false
		} else if _, err := f.NewSheet(table); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", table, err)
		}

		headers := []string{"Entity ID", "Operation", "Changed At", "Old Values", "New Values"}
		for col, header := range headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(table, cell, header)
			f.SetCellStyle(table, cell, cell, headerStyle)
		}

		for i, entry := range entries {
			row := i + 2
			f.SetCellValue(table, fmt.Sprintf("A%d", row), entry.EntityID)
			f.SetCellValue(table, fmt.Sprintf("B%d", row), string(entry.Operation))
			f.SetCellValue(table, fmt.Sprintf("C%d", row), entry.ChangedAt.Format(time.RFC3339))
			f.SetCellValue(table, fmt.Sprintf("D%d", row), compactValues(entry.OldValues))
			f.SetCellValue(table, fmt.Sprintf("E%d", row), compactValues(entry.NewValues))
		}
		f.SetColWidth(table, "A", "A", 38)
		f.SetColWidth(table, "D", "E", 60)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (w *Writer) writeRunsSheet(f *excelize.File, runs []domain.UpdateRun) error {
	const sheet = "Runs"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create runs sheet: %w", err)
	}

	headers := []string{"Run ID", "Started", "Completed", "Status", "Added", "Updated", "Deleted", "Source URL", "Error"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, run := range runs {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), run.RunID.String())
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), run.StartedAt.Format(time.RFC3339))
		if run.CompletedAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), run.CompletedAt.Format(time.RFC3339))
		}
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), string(run.Status))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), run.Counts.Added)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), run.Counts.Updated)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), run.Counts.Deleted)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), run.Source.URL)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), run.ErrorMsg)
	}
	f.SetColWidth(sheet, "A", "A", 38)
	f.SetColWidth(sheet, "H", "H", 50)
	return nil
}

func (w *Writer) writeSummarySheet(f *excelize.File, summary *ledger.ChangeSummaryReport) error {
	const sheet = "Changes by table"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	headers := []string{"Table", "Inserts", "Updates", "Deletes", "Total"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	row := 2
	for _, table := range domain.CoreTables {
		ops := summary.ByTable[table]
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), table)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), ops[domain.OpInsert])
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), ops[domain.OpUpdate])
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), ops[domain.OpDelete])
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), ops.Total())
		row++
	}
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "All tables")
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row), summary.TotalChanges)
	return nil
}

func compactValues(values domain.Row) string {
	if len(values) == 0 {
		return ""
	}
	out := ""
	for _, col := range sortedKeys(values) {
		if out != "" {
			out += "; "
		}
		out += fmt.Sprintf("%s=%v", col, values[col])
	}
	return out
}
