package detector

import (
	"fmt"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
)

// Expectation describes the changes a fixture-driven regression test
// expects a comparison to produce.
type Expectation struct {
	TotalChanges int
	Tables       map[string]domain.OperationSummary
}

// ExpectationReport itemizes every mismatch instead of collapsing to a
// boolean, so a failing fixture run says exactly what drifted.
type ExpectationReport struct {
	Valid      bool
	Mismatches []string
	Warnings   []string
}

// ValidateExpectations compares a detection result against an expected
// outcome, per table and per operation.
func ValidateExpectations(result *domain.ChangeDetectionResult, expected *Expectation) ExpectationReport {
	report := ExpectationReport{Valid: true}

	if expected == nil {
		report.Warnings = append(report.Warnings, "no expected changes provided for validation")
		return report
	}

	if result.TotalChanges != expected.TotalChanges {
		report.Mismatches = append(report.Mismatches,
			fmt.Sprintf("total changes mismatch: expected %d, got %d", expected.TotalChanges, result.TotalChanges))
		report.Valid = false
	}

	for table, expectedSummary := range expected.Tables {
		actual, ok := result.Summary[table]
		if !ok {
			report.Mismatches = append(report.Mismatches, fmt.Sprintf("missing table in results: %s", table))
			report.Valid = false
			continue
		}
		for _, op := range domain.Operations {
			if expectedSummary[op] != actual[op] {
				report.Mismatches = append(report.Mismatches,
					fmt.Sprintf("%s.%s: expected %d, got %d", table, op, expectedSummary[op], actual[op]))
				report.Valid = false
			}
		}
	}

	return report
}
