package model

import (
	"context"

	"watchtower/internal/entity"
)

// Repository defines the durable-store operations. Uniqueness of usernames
// and emails is enforced by the store's unique indexes, not by callers.
type Repository interface {
	// Credential store
	CreateAccount(ctx context.Context, account *entity.DbAccount) error
	UpdateAccount(ctx context.Context, id uint, updates map[string]interface{}) error
	GetAccountByID(ctx context.Context, id uint) (*entity.DbAccount, error)
	GetAccountByUsername(ctx context.Context, username string) (*entity.DbAccount, error)
	GetRootAccount(ctx context.Context) (*entity.DbAccount, error)
	ListAccounts(ctx context.Context, excludeRoot bool) ([]entity.DbAccount, error)
	DeleteAccount(ctx context.Context, id uint) error
	CountAccounts(ctx context.Context) (int64, error)

	// Event store
	CreateEvent(ctx context.Context, event *entity.DbEvent) error
	GetEvent(ctx context.Context, id uint) (*entity.DbEvent, error)
	ListEvents(ctx context.Context) ([]entity.DbEvent, error)
	FindEventsByIDs(ctx context.Context, ids []uint) ([]entity.DbEvent, error)
	DeleteEvent(ctx context.Context, id uint) error
	DeleteEventsByIDs(ctx context.Context, ids []uint) (int64, error)
}
