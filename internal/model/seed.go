package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"watchtower/internal/auth"
	"watchtower/internal/config"
	"watchtower/internal/entity"

	"gorm.io/gorm"
)

// SeedRootAccount ensures the single root administrator exists. This is the
// only code path that sets the IsRoot flag; the public register and admin
// create endpoints reject the reserved username outright.
func SeedRootAccount(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return errors.New("repository is nil")
	}

	existing, err := repo.GetAccountByUsername(ctx, entity.RootUsername)
	switch {
	case err == nil:
		if existing.IsRoot {
			return nil
		}
		// A pre-flag database may carry the reserved name without the
		// marker; repair it rather than ending up with zero roots.
		return repo.UpdateAccount(ctx, existing.ID, map[string]interface{}{"is_root": true})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return createRootAccount(ctx, repo, cfg)
	default:
		return err
	}
}

func createRootAccount(ctx context.Context, repo Repository, cfg config.Config) error {
	password := strings.TrimSpace(cfg.RootPassword)
	if password == "" {
		return errors.New("root bootstrap password is empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	account := &entity.DbAccount{
		Username:     entity.RootUsername,
		PasswordHash: hash,
		Role:         entity.RoleAdmin,
		IsRoot:       true,
		EmailAlerts:  true,
	}
	if recipient := strings.ToLower(strings.TrimSpace(cfg.AlertEmail)); recipient != "" {
		account.Email = &recipient
	}

	if err := repo.CreateAccount(ctx, account); err != nil {
		// A concurrent boot may have created it first; the unique index on
		// username keeps the invariant either way.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	return nil
}
