// Package export renders completed extraction results for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/use-agent/aurora/models"
)

// WriteCSV streams the result's table projection as CSV: one header row of
// column names, then one row per product.
func WriteCSV(w io.Writer, result *models.Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(result.TableData.Columns); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for i, row := range result.TableData.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// WriteJSON streams the full result document as indented JSON.
func WriteJSON(w io.Writer, result *models.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}
