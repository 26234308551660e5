package models

import "sort"

// PageMeta records what happened on one fetched page.
type PageMeta struct {
	Page    int    `json:"page"`
	Method  string `json:"method"`
	Records int    `json:"records"`
	URL     string `json:"url,omitempty"`
}

// TableData is the tabular projection of a record set: a unioned column
// header plus one row per record, with empty cells where a record lacks
// a column's field.
type TableData struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Result is the terminal aggregate of one extraction run.
type Result struct {
	Records          []ProductRecord `json:"products"`
	TotalProducts    int             `json:"total_products"`
	TotalPages       int             `json:"total_pages"`
	ExtractionMethod string          `json:"extraction_method"`
	OCRUsed          bool            `json:"ocr_used"`
	Pages            []PageMeta      `json:"pages,omitempty"`
	TableData        TableData       `json:"table_data"`
}

// Project computes the tabular projection from Records and stores it in
// TableData. Columns are the union of field names across all records:
// canonical columns first in their fixed order, then any extra fields
// sorted by name.
func (r *Result) Project() {
	seen := make(map[string]bool)
	fields := make([]map[string]string, len(r.Records))
	for i := range r.Records {
		fields[i] = r.Records[i].Fields()
		for k := range fields[i] {
			seen[k] = true
		}
	}

	var columns []string
	for _, c := range canonicalColumns {
		if seen[c] {
			columns = append(columns, c)
			delete(seen, c)
		}
	}
	extras := make([]string, 0, len(seen))
	for k := range seen {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	columns = append(columns, extras...)

	rows := make([][]string, len(fields))
	for i, f := range fields {
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = f[c]
		}
		rows[i] = row
	}

	r.TableData = TableData{Columns: columns, Rows: rows}
	r.TotalProducts = len(r.Records)
}
