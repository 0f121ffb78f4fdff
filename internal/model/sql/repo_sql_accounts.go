package sql

import (
	"context"
	"fmt"
	"strings"

	"watchtower/internal/entity"

	"gorm.io/gorm"
)

// CreateAccount persists a new account record. Username/email collisions
// surface as gorm.ErrDuplicatedKey via the unique indexes.
func (r *GormRepository) CreateAccount(ctx context.Context, account *entity.DbAccount) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if account == nil {
		return fmt.Errorf("account is nil")
	}
	return r.db.WithContext(ctx).Create(account).Error
}

// UpdateAccount applies column updates to an existing account.
func (r *GormRepository) UpdateAccount(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid account id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbAccount{}).Where("id = ?", id).Updates(updates).Error
}

// GetAccountByID loads an account by ID.
func (r *GormRepository) GetAccountByID(ctx context.Context, id uint) (*entity.DbAccount, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid account id")
	}
	var account entity.DbAccount
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByUsername loads an account by its unique username.
func (r *GormRepository) GetAccountByUsername(ctx context.Context, username string) (*entity.DbAccount, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return nil, fmt.Errorf("username is empty")
	}

	var account entity.DbAccount
	if err := r.db.WithContext(ctx).Where("username = ?", trimmed).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetRootAccount loads the single account carrying the root flag.
func (r *GormRepository) GetRootAccount(ctx context.Context) (*entity.DbAccount, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var account entity.DbAccount
	if err := r.db.WithContext(ctx).Where("is_root = ?", true).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// ListAccounts returns accounts ordered by id, optionally without the root
// account.
func (r *GormRepository) ListAccounts(ctx context.Context, excludeRoot bool) ([]entity.DbAccount, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	query := r.db.WithContext(ctx).Model(&entity.DbAccount{})
	if excludeRoot {
		query = query.Where("is_root = ?", false)
	}
	var accounts []entity.DbAccount
	if err := query.Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// DeleteAccount removes an account by ID.
func (r *GormRepository) DeleteAccount(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid account id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbAccount{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountAccounts returns the total account count.
func (r *GormRepository) CountAccounts(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbAccount{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
