package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hbeck/ledgersync/internal/domain"
)

// Read parses a bank CSV export, detects its profile from the header row and
// returns the data rows keyed by trimmed header name.
func Read(r io.Reader) (*domain.Profile, []map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		// Excel exports lead with a UTF-8 BOM.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	profile, err := domain.DetectProfile(header)
	if err != nil {
		return nil, nil, err
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return profile, rows, nil
}

// ReadFile opens and parses a CSV export from disk.
func ReadFile(path string) (*domain.Profile, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return Read(f)
}
