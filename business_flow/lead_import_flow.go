// Package businessflow contains the business logic for the application.
package businessflow

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Seiryu-CRM/app/dto"
	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/xuri/excelize/v2"
)

// LeadImportFlow ingests lead files uploaded by managers and counselors
type LeadImportFlow interface {
	Import(ctx context.Context, filename string, data []byte, actor Actor) (*dto.ImportLeadsResponse, error)
}

// LeadImportFlowImpl implements LeadImportFlow
type LeadImportFlowImpl struct {
	leads LeadFlow
}

// NewLeadImportFlow creates a new lead import flow
func NewLeadImportFlow(leads LeadFlow) LeadImportFlow {
	return &LeadImportFlowImpl{leads: leads}
}

// Import parses a CSV or XLSX file and creates one lead per data row. Row
// failures are collected, not fatal: a partially bad file still imports its
// good rows.
func (f *LeadImportFlowImpl) Import(ctx context.Context, filename string, data []byte, actor Actor) (*dto.ImportLeadsResponse, error) {
	if len(data) == 0 {
		return nil, NewBusinessError("IMPORT_FILE_REQUIRED", "an import file is required", ErrImportFileRequired)
	}

	var rows [][]string
	var err error
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		rows, err = parseCSV(data)
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		rows, err = parseXLSX(data)
	default:
		return nil, NewBusinessErrorf("IMPORT_FILE_UNSUPPORTED", "unsupported file type %q, expected .csv or .xlsx", ErrImportFileUnsupported, filename)
	}
	if err != nil {
		return nil, NewBusinessError("IMPORT_FILE_UNSUPPORTED", "failed to parse import file", err)
	}
	if len(rows) < 2 {
		return nil, NewBusinessError("IMPORT_FILE_EMPTY", "import file has no data rows", ErrImportFileEmpty)
	}

	columns := headerColumns(rows[0])

	imported := 0
	var rowErrors []dto.ImportRowError
	for i, row := range rows[1:] {
		rowNo := i + 2

		req, err := rowToCreateRequest(columns, row)
		if err != nil {
			rowErrors = append(rowErrors, dto.ImportRowError{Row: rowNo, Error: err.Error()})
			continue
		}

		if _, err := f.leads.Create(ctx, req, actor, nil); err != nil {
			rowErrors = append(rowErrors, dto.ImportRowError{Row: rowNo, Error: err.Error()})
			continue
		}
		imported++
	}

	msg := "Import completed"
	if len(rowErrors) > 0 {
		msg = fmt.Sprintf("Import completed with %d failed rows", len(rowErrors))
	}
	return &dto.ImportLeadsResponse{
		Message:   msg,
		Imported:  imported,
		Failed:    len(rowErrors),
		RowErrors: rowErrors,
	}, nil
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func parseXLSX(data []byte) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid XLSX: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// headerColumns maps normalized header names to their column index
func headerColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key != "" {
			cols[key] = i
		}
	}
	return cols
}

// normalizeHeader lowercases a header and strips spaces, underscores, and dashes
// so "First Name", "first_name", and "firstName" all match
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if r == ' ' || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// rowToCreateRequest maps a data row onto a create request using the header layout
func rowToCreateRequest(cols map[string]int, row []string) (*dto.CreateLeadRequest, error) {
	cell := func(key string) string {
		idx, ok := cols[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	cellPtr := func(key string) *string {
		v := cell(key)
		if v == "" {
			return nil
		}
		return &v
	}

	req := &dto.CreateLeadRequest{
		FirstName:            cell("firstname"),
		LastName:             cell("lastname"),
		Email:                cell("email"),
		MobileNumber:         cell("mobilenumber"),
		AlternateNumber:      cellPtr("alternatenumber"),
		WhatsappNumber:       cellPtr("whatsappnumber"),
		LocationCity:         cellPtr("locationcity"),
		LocationState:        cellPtr("locationstate"),
		Nationality:          cellPtr("nationality"),
		Gender:               cellPtr("gender"),
		MotherTongue:         cellPtr("mothertongue"),
		HighestQualification: cellPtr("highestqualification"),
		YearsOfExperience:    cellPtr("yearsofexperience"),
		University:           cellPtr("university"),
		Program:              cellPtr("program"),
		Specialization:       cellPtr("specialization"),
		Batch:                cellPtr("batch"),
		LeadSource:           cellPtr("leadsource"),
		LeadSubSource:        cellPtr("leadsubsource"),
		Status:               cellPtr("leadstatus"),
		SubStatus:            cellPtr("leadsubstatus"),
		Description:          cellPtr("leaddescription"),
		Comment:              cellPtr("comment"),
	}
	createdFrom := models.LeadCreatedFromImport
	req.CreatedFrom = &createdFrom

	if v := cell("yearofcompletion"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid year of completion %q", v)
		}
		req.YearOfCompletion = &year
	}
	if v := cell("dateofbirth"); v != "" {
		dob, err := parseDate(v)
		if err != nil {
			return nil, fmt.Errorf("invalid date of birth %q", v)
		}
		req.DateOfBirth = &dob
	}
	if v := cell("nextfollowupat"); v != "" {
		at, err := parseDate(v)
		if err != nil {
			return nil, fmt.Errorf("invalid follow-up date %q", v)
		}
		req.NextFollowUpAt = &at
	}

	if req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("first name and last name are required")
	}
	if req.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if req.MobileNumber == "" {
		return nil, fmt.Errorf("mobile number is required")
	}

	return req, nil
}

// parseDate accepts RFC3339 timestamps and the date layouts spreadsheets export
func parseDate(v string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02", "02/01/2006", "01-02-06", "2006/01/02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}
