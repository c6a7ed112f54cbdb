package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/data/repos"
	types "github.com/yungbote/rosterbridge-backend/internal/domain"
	"github.com/yungbote/rosterbridge-backend/internal/normalization"
	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

type ColumnID string

const (
	ColumnPersonKey   ColumnID = "person_key"
	ColumnFirstName   ColumnID = "first_name"
	ColumnLastName    ColumnID = "last_name"
	ColumnEmail       ColumnID = "email"
	ColumnPhone       ColumnID = "phone"
	ColumnDistrict    ColumnID = "district"
	ColumnAddressNote ColumnID = "address_note"
	ColumnNotes       ColumnID = "notes"
	ColumnStatus      ColumnID = "status"
	ColumnAgent       ColumnID = "agent"
)

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

type exportColumn struct {
	Label string
	Width float64
	Value func(e *types.RosterEntry, a *types.Agent) string
}

var exportColumns = map[ColumnID]exportColumn{
	ColumnPersonKey: {"Sicil No", 15, func(e *types.RosterEntry, _ *types.Agent) string { return e.PersonKey }},
	ColumnFirstName: {"Ad", 20, func(e *types.RosterEntry, _ *types.Agent) string { return e.FirstName }},
	ColumnLastName:  {"Soyad", 20, func(e *types.RosterEntry, _ *types.Agent) string { return e.LastName }},
	ColumnEmail:     {"E-posta", 30, func(e *types.RosterEntry, _ *types.Agent) string { return normalization.Deref(e.Email) }},
	ColumnPhone:     {"Telefon", 18, func(e *types.RosterEntry, _ *types.Agent) string { return normalization.Deref(e.Phone) }},
	ColumnDistrict:  {"İlçe", 18, func(e *types.RosterEntry, _ *types.Agent) string { return normalization.Deref(e.District) }},
	ColumnAddressNote: {"Adres Açıklama", 35, func(e *types.RosterEntry, _ *types.Agent) string {
		return normalization.Deref(e.AddressNote)
	}},
	ColumnNotes: {"Notlar", 40, func(e *types.RosterEntry, _ *types.Agent) string { return normalization.Deref(e.Notes) }},
	ColumnStatus: {"Cevap Durumu", 18, func(e *types.RosterEntry, _ *types.Agent) string {
		if e.StatusOption == nil {
			return ""
		}
		return e.StatusOption.Label
	}},
	ColumnAgent: {"Avukat", 25, func(_ *types.RosterEntry, a *types.Agent) string {
		if a == nil {
			return ""
		}
		return fmt.Sprintf("%s %s (%s)", a.FirstName, a.LastName, a.BusinessKey)
	}},
}

var defaultExportColumns = []ColumnID{
	ColumnPersonKey, ColumnFirstName, ColumnLastName, ColumnPhone,
	ColumnEmail, ColumnDistrict, ColumnStatus, ColumnAgent,
}

// ParseColumns splits a comma separated column list. Unknown ids are an error.
func ParseColumns(raw string) ([]ColumnID, error) {
	var out []ColumnID
	var unknown []string
	for _, part := range strings.Split(raw, ",") {
		id := ColumnID(strings.ToLower(strings.TrimSpace(part)))
		if id == "" {
			continue
		}
		if _, ok := exportColumns[id]; !ok {
			unknown = append(unknown, string(id))
			continue
		}
		out = append(out, id)
	}
	if len(unknown) > 0 {
		return nil, invalid("unknown_column", "unknown export columns", unknown...)
	}
	return out, nil
}

type ExportRequest struct {
	AgentID   *uuid.UUID
	StatusKey string
	Columns   []ColumnID
	Format    ExportFormat
}

type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService interface {
	Export(ctx context.Context, req ExportRequest) (*ExportFile, error)
	Template(format ExportFormat) (*ExportFile, error)
}

type sheetColumn struct {
	Label string
	Width float64
}

// uploadTemplateColumns are the headers an upload is decoded by, in the order
// operators keep them in their spreadsheets.
var uploadTemplateColumns = []sheetColumn{
	{"Sicil No", 15}, {"Ad", 20}, {"Soyad", 20}, {"Cevap Durumu", 18},
	{"Tel No", 18}, {"Mail", 30}, {"İlçe", 18}, {"Adres", 35}, {"Notlar", 40},
}

type exportService struct {
	db         *gorm.DB
	log        *logger.Logger
	agentRepo  repos.AgentRepo
	rosterRepo repos.RosterEntryRepo
	now        func() time.Time
}

func NewExportService(db *gorm.DB, log *logger.Logger, agentRepo repos.AgentRepo, rosterRepo repos.RosterEntryRepo) ExportService {
	return &exportService{
		db:         db,
		log:        log.With("service", "ExportService"),
		agentRepo:  agentRepo,
		rosterRepo: rosterRepo,
		now:        time.Now,
	}
}

func (s *exportService) Export(ctx context.Context, req ExportRequest) (*ExportFile, error) {
	cols := req.Columns
	if len(cols) == 0 {
		cols = defaultExportColumns
	}
	for _, c := range cols {
		if _, ok := exportColumns[c]; !ok {
			return nil, invalid("unknown_column", "unknown export columns", string(c))
		}
	}
	format, err := parseFormat(req.Format)
	if err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	agents, err := s.agentRepo.List(dbc)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Agent, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
	}
	if req.AgentID != nil {
		if _, ok := byID[*req.AgentID]; !ok {
			return nil, fmt.Errorf("agent %s: %w", *req.AgentID, ErrNotFound)
		}
	}
	entries, err := s.rosterRepo.List(dbc, repos.RosterFilter{
		AgentID:    req.AgentID,
		StatusKey:  normalization.ParseInputString(req.StatusKey),
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = exportColumns[c].Value(e, byID[e.AgentID])
		}
		rows = append(rows, row)
	}

	sheet := make([]sheetColumn, len(cols))
	for i, c := range cols {
		sheet[i] = sheetColumn{Label: exportColumns[c].Label, Width: exportColumns[c].Width}
	}
	return writeFile("roster_export_"+s.now().Format("20060102_150405"), format, sheet, rows)
}

// Template returns an empty upload file carrying the recognised headers.
func (s *exportService) Template(format ExportFormat) (*ExportFile, error) {
	format, err := parseFormat(format)
	if err != nil {
		return nil, err
	}
	return writeFile("roster_template", format, uploadTemplateColumns, nil)
}

func parseFormat(raw ExportFormat) (ExportFormat, error) {
	format := ExportFormat(strings.ToLower(strings.TrimSpace(string(raw))))
	if format == "" {
		format = FormatXLSX
	}
	if format != FormatCSV && format != FormatXLSX {
		return "", invalid("unknown_format", fmt.Sprintf("unsupported export format %q", raw))
	}
	return format, nil
}

func writeFile(base string, format ExportFormat, cols []sheetColumn, rows [][]string) (*ExportFile, error) {
	if format == FormatCSV {
		data, err := writeCSV(cols, rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    base + ".csv",
			ContentType: "text/csv; charset=utf-8",
			Data:        data,
		}, nil
	}
	data, err := writeXLSX(cols, rows)
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		Filename:    base + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}

func writeCSV(cols []sheetColumn, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	// Excel needs the BOM to read UTF-8.
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const exportSheet = "Roster"

func writeXLSX(cols []sheetColumn, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}

	header := make([]interface{}, len(cols))
	for i, col := range cols {
		header[i] = col.Label
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(exportSheet, name, name, col.Width); err != nil {
			return nil, err
		}
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(r))
		for j, v := range r {
			values[j] = v
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
