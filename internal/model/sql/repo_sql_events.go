package sql

import (
	"context"
	"fmt"

	"watchtower/internal/entity"

	"gorm.io/gorm"
)

// CreateEvent inserts a new event record.
func (r *GormRepository) CreateEvent(ctx context.Context, event *entity.DbEvent) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if event == nil {
		return fmt.Errorf("event is nil")
	}
	if event.ImagePath == "" {
		return fmt.Errorf("event image path is empty")
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// GetEvent loads an event by ID.
func (r *GormRepository) GetEvent(ctx context.Context, id uint) (*entity.DbEvent, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid event id")
	}
	var event entity.DbEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents returns all events, most recent capture first.
func (r *GormRepository) ListEvents(ctx context.Context) ([]entity.DbEvent, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var events []entity.DbEvent
	if err := r.db.WithContext(ctx).Order("timestamp DESC, id DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindEventsByIDs returns the subset of events matching the given ids.
func (r *GormRepository) FindEventsByIDs(ctx context.Context, ids []uint) ([]entity.DbEvent, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var events []entity.DbEvent
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteEvent removes an event by ID.
func (r *GormRepository) DeleteEvent(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid event id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbEvent{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteEventsByIDs removes a batch of events in one statement and reports
// how many rows were actually deleted.
func (r *GormRepository) DeleteEventsByIDs(ctx context.Context, ids []uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entity.DbEvent{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
