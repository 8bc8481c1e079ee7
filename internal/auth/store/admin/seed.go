package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"empverify/internal/auth/models"
	"empverify/pkg/domain"
	"empverify/pkg/platform/sentinel"
)

type creator interface {
	Create(ctx context.Context, a *models.Admin) error
}

type hasher interface {
	Hash(secret string) (string, error)
}

// SeedCredentials are the initial passwords of the seeded accounts.
type SeedCredentials struct {
	AdminPassword     string
	HRManagerPassword string
}

// SeedAdmins creates the super admin and HR manager accounts. Accounts that
// already exist are left untouched.
func SeedAdmins(ctx context.Context, s creator, h hasher, creds SeedCredentials) error {
	now := time.Now().UTC()
	for _, seed := range seedAdmins(creds) {
		hash, err := h.Hash(seed.password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", seed.admin.Username, err)
		}
		seed.admin.PasswordHash = hash
		seed.admin.CreatedAt = now
		if err := s.Create(ctx, seed.admin); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				continue
			}
			return fmt.Errorf("seed admin %s: %w", seed.admin.Username, err)
		}
	}
	return nil
}

type seedAdmin struct {
	admin    *models.Admin
	password string
}

func seedAdmins(creds SeedCredentials) []seedAdmin {
	return []seedAdmin{
		{
			admin: &models.Admin{
				ID:          domain.NewAdminID(),
				Username:    "admin",
				Email:       "admin@company.com",
				FullName:    "System Administrator",
				Department:  "IT",
				Role:        domain.RoleSuperAdmin,
				Permissions: domain.AllPermissions,
				IsActive:    true,
			},
			password: creds.AdminPassword,
		},
		{
			admin: &models.Admin{
				ID:         domain.NewAdminID(),
				Username:   "hr_manager",
				Email:      "hr@company.com",
				FullName:   "HR Manager",
				Department: "Human Resources",
				Role:       domain.RoleHRManager,
				Permissions: []domain.Permission{
					domain.PermViewAppeals,
					domain.PermManageAppeals,
					domain.PermViewEmployees,
					domain.PermSendEmails,
					domain.PermViewReports,
				},
				IsActive: true,
			},
			password: creds.HRManagerPassword,
		},
	}
}
