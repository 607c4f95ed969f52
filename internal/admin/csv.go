package admin

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Row is one restaurant to import
type Row struct {
	Line      int
	Name      string
	Type      string
	Location  string
	Phone     string
	ImagePath string // absolute, or empty for no image
}

var requiredColumns = []string{"name", "type", "location", "phone"}

// ParseCSV reads rows with a header of name,type,location,phone and an
// optional image_path column. Relative image paths resolve against baseDir.
func ParseCSV(r io.Reader, baseDir string) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []Row
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		row := Row{
			Line:      line,
			Name:      field(rec, "name"),
			Type:      field(rec, "type"),
			Location:  field(rec, "location"),
			Phone:     field(rec, "phone"),
			ImagePath: field(rec, "image_path"),
		}
		if row.Name == "" {
			return nil, fmt.Errorf("line %d: name is required", line)
		}
		if row.ImagePath != "" && !filepath.IsAbs(row.ImagePath) {
			row.ImagePath = filepath.Join(baseDir, row.ImagePath)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
