package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"empverify/internal/employee/models"
	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
)

// PostgresStore reads employees from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.EmployeeID) (*models.Employee, error) {
	query := `
		SELECT employee_id, name, email, entity_name, designation, department, product,
		       date_of_joining, date_of_leaving, exit_reason, fnf_status, created_at
		FROM employees
		WHERE employee_id = $1
	`
	emp, err := scanEmployee(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return emp, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, emp *models.Employee) error {
	query := `
		INSERT INTO employees (employee_id, name, email, entity_name, designation, department, product,
		                       date_of_joining, date_of_leaving, exit_reason, fnf_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (employee_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			entity_name = EXCLUDED.entity_name,
			designation = EXCLUDED.designation,
			department = EXCLUDED.department,
			product = EXCLUDED.product,
			date_of_joining = EXCLUDED.date_of_joining,
			date_of_leaving = EXCLUDED.date_of_leaving,
			exit_reason = EXCLUDED.exit_reason,
			fnf_status = EXCLUDED.fnf_status
	`
	_, err := s.db.ExecContext(ctx, query,
		emp.EmployeeID.String(), emp.Name, emp.Email, emp.EntityName, emp.Designation,
		emp.Department, emp.Product, emp.DateOfJoining, emp.DateOfLeaving,
		emp.ExitReason, emp.FnFStatus, emp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert employee: %w", err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return n, nil
}

type employeeRow interface {
	Scan(dest ...any) error
}

func scanEmployee(row employeeRow) (*models.Employee, error) {
	var emp models.Employee
	var id string
	if err := row.Scan(&id, &emp.Name, &emp.Email, &emp.EntityName, &emp.Designation,
		&emp.Department, &emp.Product, &emp.DateOfJoining, &emp.DateOfLeaving,
		&emp.ExitReason, &emp.FnFStatus, &emp.CreatedAt); err != nil {
		return nil, err
	}
	emp.EmployeeID = domain.EmployeeID(id)
	return &emp, nil
}
