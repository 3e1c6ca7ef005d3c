package workbook

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/uttam4027/MHJ-SKU-Checker/internal/checker"
)

var (
	// ErrEmptySheet is returned when the uploaded sheet has no rows at all.
	ErrEmptySheet = errors.New("the uploaded file is empty")
	// ErrNoSKUs is returned when column A has no non-blank values.
	ErrNoSKUs = errors.New("no SKUs found in column A")
)

const (
	resultsSheet = "Results"
	sampleSheet  = "SKUs"

	headerSKU    = "SKU"
	headerStatus = "Status"
)

// ContentType is the MIME type for xlsx downloads.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SampleFilename names the sample workbook offered for download.
const SampleFilename = "sample_skus.xlsx"

// SampleSKUs are the example values shipped in the sample workbook.
var SampleSKUs = []string{"23360778", "23402560", "23189867", "22334633", "23360747"}

// ReadSKUs pulls the SKU sequence out of an uploaded workbook: first sheet,
// column A, blanks dropped, row order preserved, every cell coerced to text.
// A leading cell that equals "sku" case-insensitively is treated as the
// header row and skipped; any other first row is data. That rule keeps
// WriteResults output round-trippable without eating the first SKU of a
// headerless upload.
func ReadSKUs(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptySheet
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	skus := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		skus = append(skus, cell)
	}

	if len(skus) > 0 && strings.EqualFold(skus[0], headerSKU) {
		skus = skus[1:]
	}

	if len(skus) == 0 {
		return nil, ErrNoSKUs
	}

	return skus, nil
}

// WriteResults builds the results workbook: a Results sheet with a SKU and
// Status column and one row per result, in run order. The caller owns the
// returned file and must Close it.
func WriteResults(results []checker.CheckResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(resultsSheet, "A1", &[]any{headerSKU, headerStatus}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, res := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(resultsSheet, cell, &[]any{res.SKU, string(res.Status)}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return f, nil
}

// SampleWorkbook builds the five-row example workbook offered for download
// before any run.
func SampleWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sampleSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetCellStr(sampleSheet, "A1", headerSKU); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, sku := range SampleSKUs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		if err := f.SetCellStr(sampleSheet, cell, sku); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write sample SKU: %w", err)
		}
	}

	return f, nil
}

// ResultsFilename names the results download from the run's completion
// timestamp: sku_results_<YYYYMMDD_HHMMSS>.xlsx.
func ResultsFilename(completedAt time.Time) string {
	return fmt.Sprintf("sku_results_%s.xlsx", completedAt.Format("20060102_150405"))
}
