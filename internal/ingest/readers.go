package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readTable extracts a [][]string from CSV or XLSX content. The bool result
// reports whether the input was tabular at all; non-tabular content is handed
// back to the detector as free text.
func readTable(data []byte, contentType, fileName string) ([][]string, bool, error) {
	switch {
	case isXLSX(contentType, fileName):
		records, err := readXLSX(data)
		if err != nil {
			return nil, false, wrapParse(err)
		}
		return records, true, nil
	case isCSV(contentType, fileName) || looksLikeCSV(data):
		records, err := readCSV(data)
		if err != nil {
			return nil, false, wrapParse(err)
		}
		return records, true, nil
	default:
		return nil, false, nil
	}
}

func isCSV(contentType, fileName string) bool {
	return contentType == "text/csv" || strings.HasSuffix(strings.ToLower(fileName), ".csv")
}

func isXLSX(contentType, fileName string) bool {
	return contentType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" ||
		strings.HasSuffix(strings.ToLower(fileName), ".xlsx")
}

// looksLikeCSV sniffs text content: every non-empty line among the first few
// must contain a comma.
func looksLikeCSV(data []byte) bool {
	lines := strings.Split(string(data), "\n")
	checked := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.Contains(line, ",") {
			return false
		}
		checked++
		if checked >= 3 {
			break
		}
	}
	return checked > 0
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // ragged rows handled downstream
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, row)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}
