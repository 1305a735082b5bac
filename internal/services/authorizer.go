package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/config"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/identity"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Authorizer decides whether the caller may moderate reports.
type Authorizer interface {
	Authorize(ctx context.Context, id *identity.Identity) error
}

// RoleAuthorizer grants moderation to admins. The admin role comes from the
// token, the configured admin lists, or the users table.
type RoleAuthorizer struct {
	db           *gorm.DB
	adminEmails  []string
	adminUserIDs []string
}

func NewRoleAuthorizer(db *gorm.DB, cfg *config.Config) *RoleAuthorizer {
	return &RoleAuthorizer{
		db:           db,
		adminEmails:  parseCSV(cfg.AdminEmails),
		adminUserIDs: parseCSV(cfg.AdminUserIDs),
	}
}

func (a *RoleAuthorizer) Authorize(ctx context.Context, id *identity.Identity) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if id.IsAdmin() {
		return nil
	}
	if contains(a.adminEmails, id.Email) || contains(a.adminUserIDs, id.UserID) {
		return nil
	}

	role, err := a.storedRole(ctx, id.UserID)
	if err != nil {
		return err
	}
	if role == identity.RoleAdmin {
		return nil
	}
	return ErrForbidden
}

func (a *RoleAuthorizer) storedRole(ctx context.Context, userID string) (string, error) {
	if a.db == nil {
		return "", nil
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return "", nil
	}

	var user models.User
	if err := a.db.WithContext(ctx).Select("role").First(&user, "id = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("lookup role for %s: %w", userID, err)
	}
	return user.Role, nil
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	if val == "" {
		return false
	}
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
