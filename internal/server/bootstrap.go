package server

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
	"github.com/noah-isme/treasury-api/internal/repository/memory"
)

// BootstrapAdmin is the first account created on an empty database.
type BootstrapAdmin struct {
	Name     string
	Email    string
	Password string
}

// Bootstrap installs the default profiles and one administrator when the store
// holds no profile yet. It reports whether anything was written.
func Bootstrap(ctx context.Context, store *repository.Store, admin BootstrapAdmin, logger *zap.Logger) (bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	existing, err := store.Profiles.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list profiles: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	if strings.TrimSpace(admin.Email) == "" || admin.Password == "" {
		return false, fmt.Errorf("bootstrap admin email and password are required on an empty store")
	}

	var adminProfileID string
	for _, p := range memory.DefaultProfiles() {
		created, err := store.Profiles.Create(ctx, &p)
		if err != nil {
			return false, fmt.Errorf("create profile %s: %w", p.Name, err)
		}
		if created.IsDefault {
			adminProfileID = created.ID
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash bootstrap password: %w", err)
	}
	name := admin.Name
	if name == "" {
		name = "Administrateur"
	}
	user, err := store.Users.Create(ctx, &models.User{
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(admin.Email)),
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		ProfileID:    adminProfileID,
		Status:       models.UserStatusActive,
	})
	if err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	logger.Info("bootstrapped empty store", zap.String("admin_id", user.ID), zap.String("admin_email", user.Email))
	return true, nil
}
