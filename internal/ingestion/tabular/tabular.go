package tabular

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/yungbote/rosterbridge-backend/internal/normalization"
)

// Field is a canonical roster column.
type Field string

const (
	FieldPersonKey   Field = "person_key"
	FieldFirstName   Field = "first_name"
	FieldLastName    Field = "last_name"
	FieldEmail       Field = "email"
	FieldPhone       Field = "phone"
	FieldDistrict    Field = "district"
	FieldAddressNote Field = "address_note"
	FieldNotes       Field = "notes"
	FieldStatusKey   Field = "status_key"
)

var RequiredFields = []Field{FieldPersonKey, FieldFirstName, FieldLastName}

// headerAliases maps folded header text to a field. Turkish headers are the
// ones operators export from their spreadsheets.
var headerAliases = map[string]Field{
	"sicilno":        FieldPersonKey,
	"kisisicilno":    FieldPersonKey,
	"kisi_sicilno":   FieldPersonKey,
	"ad":             FieldFirstName,
	"soyad":          FieldLastName,
	"cevapdurumu":    FieldStatusKey,
	"telno":          FieldPhone,
	"mail":           FieldEmail,
	"ilce":           FieldDistrict,
	"adres":          FieldAddressNote,
	"adres_aciklama": FieldAddressNote,
	"notlar":         FieldNotes,

	"person_key":   FieldPersonKey,
	"personkey":    FieldPersonKey,
	"first_name":   FieldFirstName,
	"firstname":    FieldFirstName,
	"last_name":    FieldLastName,
	"lastname":     FieldLastName,
	"email":        FieldEmail,
	"phone":        FieldPhone,
	"district":     FieldDistrict,
	"address_note": FieldAddressNote,
	"address":      FieldAddressNote,
	"notes":        FieldNotes,
	"status_key":   FieldStatusKey,
	"status":       FieldStatusKey,
}

// sourceHeader is the header operators know each required field by.
var sourceHeader = map[Field]string{
	FieldPersonKey: "sicilno",
	FieldFirstName: "ad",
	FieldLastName:  "soyad",
}

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoHeader          = errors.New("no header row found")
)

// MissingColumnsError reports required columns absent from the header row.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// RawRow is one decoded data row. Line is the 1-based source line, the header
// being line 1.
type RawRow struct {
	Line   int
	values map[Field]string
}

func NewRawRow(line int, values map[Field]string) RawRow {
	return RawRow{Line: line, values: values}
}

// Get returns the raw cell text for f, "" when the column is absent.
func (r RawRow) Get(f Field) string {
	return r.values[f]
}

func (r RawRow) blank() bool {
	for _, v := range r.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Decode reads a CSV/TXT or XLSX/XLSM upload into rows keyed by canonical field.
// Blank lines are dropped; a header without data rows yields no rows and no
// error.
func Decode(name string, r io.Reader) ([]RawRow, error) {
	var (
		records [][]string
		lines   []int
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv", ".txt":
		records, lines, err = readCSV(r)
	case ".xlsx", ".xlsm":
		records, lines, err = readXLSX(r)
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls workbooks must be saved as .xlsx", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return mapRecords(records, lines)
}

func mapRecords(records [][]string, lines []int) ([]RawRow, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	columns := make(map[int]Field, len(records[0]))
	seen := make(map[Field]bool)
	for i, h := range records[0] {
		f, ok := headerAliases[normalization.FoldHeader(h)]
		if !ok || seen[f] {
			continue
		}
		columns[i] = f
		seen[f] = true
	}
	var missing []string
	for _, f := range RequiredFields {
		if !seen[f] {
			missing = append(missing, sourceHeader[f])
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	out := make([]RawRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		values := make(map[Field]string, len(columns))
		for col, f := range columns {
			if col < len(rec) {
				values[f] = rec[col]
			}
		}
		row := NewRawRow(lines[i+1], values)
		if row.blank() {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
