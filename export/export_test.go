package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/use-agent/aurora/models"
)

func sampleResult() *models.Result {
	res := &models.Result{
		Records: []models.ProductRecord{
			{Title: "Wireless Mouse", Price: "$24.99", Rating: "4.3", Page: 1},
			{Title: `Cable, "braided"`, Price: "$7.50", Page: 1},
		},
		TotalPages:       1,
		ExtractionMethod: "static",
	}
	res.Project()
	return res
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows:\n%s", len(lines), buf.String())
	}
	if lines[0] != "title,price,rating,page" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "Wireless Mouse,$24.99,4.3,1" {
		t.Fatalf("row 1 = %q", lines[1])
	}
	// Embedded commas and quotes must survive the round trip.
	if !strings.Contains(lines[2], `"Cable, ""braided"""`) {
		t.Fatalf("row 2 = %q, want CSV-escaped title", lines[2])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded models.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.TotalProducts != 2 {
		t.Fatalf("TotalProducts = %d, want 2", decoded.TotalProducts)
	}
	if len(decoded.TableData.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(decoded.TableData.Rows))
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatal("output is not indented")
	}
}
