package store

import (
	"context"
	"fmt"
	"time"

	"empverify/internal/employee/models"
)

type upserter interface {
	Upsert(ctx context.Context, emp *models.Employee) error
}

// SeedEmployees loads the reference employees used in development and demos.
func SeedEmployees(ctx context.Context, s upserter) error {
	now := time.Now().UTC()
	for _, emp := range seedEmployees() {
		emp.CreatedAt = now
		if err := s.Upsert(ctx, emp); err != nil {
			return fmt.Errorf("seed employee %s: %w", emp.EmployeeID, err)
		}
	}
	return nil
}

func seedEmployees() []*models.Employee {
	return []*models.Employee{
		{
			EmployeeID:    "6002056",
			Name:          "S Sathish",
			Email:         "sathish.s@company.com",
			EntityName:    "TVSCSHIB",
			Designation:   "Executive",
			Department:    "HRD",
			Product:       "Two Wheeler",
			DateOfJoining: date(2021, time.February, 5),
			DateOfLeaving: date(2024, time.March, 31),
			ExitReason:    "Resigned",
			FnFStatus:     "Completed",
		},
		{
			EmployeeID:    "6002057",
			Name:          "Rajesh Kumar",
			Email:         "rajesh.kumar@company.com",
			EntityName:    "TVSCSHIB",
			Designation:   "Assistant Manager",
			Department:    "Technology",
			Product:       "Consumer Durables",
			DateOfJoining: date(2020, time.March, 15),
			DateOfLeaving: date(2024, time.January, 20),
			ExitReason:    "Resigned",
			FnFStatus:     "Completed",
		},
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
