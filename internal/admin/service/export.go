package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	employee "empverify/internal/employee/models"
	verification "empverify/internal/verification/models"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/requestcontext"
)

const (
	exportDateLayout     = "02/01/2006"
	exportDateTimeLayout = "02/01/2006, 15:04:05"
	notAvailable         = "N/A"
)

// ExportHeaders is the column order of the verification export.
var ExportHeaders = []string{
	"S.No",
	"Employee ID",
	"Employee Name",
	"Product",
	"Department",
	"Designation",
	"Date of Joining",
	"Last Working Day",
	"Verified on",
	"Verified by",
	"Verified for",
}

// ExportRow is one verification in the export, already formatted for display.
type ExportRow struct {
	SerialNo       int    `json:"S.No"`
	EmployeeID     string `json:"Employee ID"`
	EmployeeName   string `json:"Employee Name"`
	Product        string `json:"Product"`
	Department     string `json:"Department"`
	Designation    string `json:"Designation"`
	DateOfJoining  string `json:"Date of Joining"`
	LastWorkingDay string `json:"Last Working Day"`
	VerifiedOn     string `json:"Verified on"`
	VerifiedBy     string `json:"Verified by"`
	VerifiedFor    string `json:"Verified for"`
}

// Values returns the row in ExportHeaders order.
func (r ExportRow) Values() []string {
	return []string{
		strconv.Itoa(r.SerialNo),
		r.EmployeeID,
		r.EmployeeName,
		r.Product,
		r.Department,
		r.Designation,
		r.DateOfJoining,
		r.LastWorkingDay,
		r.VerifiedOn,
		r.VerifiedBy,
		r.VerifiedFor,
	}
}

// Export is the full verification report.
type Export struct {
	Records    []ExportRow `json:"records"`
	Total      int         `json:"total"`
	Headers    []string    `json:"headers"`
	ExportedAt time.Time   `json:"exportedAt"`
}

// Export builds one row per verification record. Employee master data wins
// over what the verifier submitted; unknown verifiers read as "Unknown".
func (s *Service) Export(ctx context.Context) (*Export, error) {
	ctx, span := s.tracer.Start(ctx, "admin.Export")
	defer span.End()

	records, err := s.verifications.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list verifications failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to export data")
	}

	companies := newCompanyResolver(s.verifiers, s.logger)
	employees := make(map[string]*employee.Employee)
	rows := make([]ExportRow, 0, len(records))
	for i, rec := range records {
		emp, ok := employees[rec.EmployeeID.String()]
		if !ok {
			emp, err = s.employees.FindByID(ctx, rec.EmployeeID)
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				span.RecordError(err)
				s.logger.ErrorContext(ctx, "failed to load employee for export",
					"request_id", requestcontext.RequestID(ctx),
					"employee_id", rec.EmployeeID,
					"error", err,
				)
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to export data")
			}
			employees[rec.EmployeeID.String()] = emp
		}
		verifier := companies.lookup(ctx, rec.VerifierID)
		rows = append(rows, buildRow(i+1, rec, emp, verifier.Email, verifier.CompanyName))
	}

	span.SetAttributes(attribute.Int("export.rows", len(rows)))
	return &Export{
		Records:    rows,
		Total:      len(rows),
		Headers:    ExportHeaders,
		ExportedAt: requestcontext.Now(ctx),
	}, nil
}

func buildRow(n int, rec *verification.VerificationRecord, emp *employee.Employee, verifiedBy, verifiedFor string) ExportRow {
	row := ExportRow{
		SerialNo:     n,
		EmployeeID:   rec.EmployeeID.String(),
		EmployeeName: rec.SubmittedData.EmployeeName,
		Product:      notAvailable,
		Department:   notAvailable,
		Designation:  rec.SubmittedData.Designation,
		VerifiedBy:   verifiedBy,
		VerifiedFor:  verifiedFor,
	}
	verifiedOn := rec.CreatedAt
	if rec.CompletedAt != nil {
		verifiedOn = *rec.CompletedAt
	}
	row.VerifiedOn = formatDate(verifiedOn, exportDateTimeLayout)

	if emp == nil {
		return row
	}
	if emp.Name != "" {
		row.EmployeeName = emp.Name
	}
	if emp.Product != "" {
		row.Product = emp.Product
	}
	if emp.Department != "" {
		row.Department = emp.Department
	}
	if emp.Designation != "" {
		row.Designation = emp.Designation
	}
	row.DateOfJoining = formatDate(emp.DateOfJoining, exportDateLayout)
	row.LastWorkingDay = formatDate(emp.DateOfLeaving, exportDateLayout)
	return row
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout)
}
