package entity

import "time"

// DbEvent represents one captured surveillance event. ImagePath is the
// storage-relative key of the uploaded frame and doubles as the deletion
// handle; it is set once at ingestion and never updated.
type DbEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Timestamp time.Time `gorm:"column:timestamp;index;not null" json:"timestamp"`
	ImagePath string    `gorm:"column:image_path;type:varchar(512);not null" json:"-"`
}

// TableName overrides default pluralised name.
func (DbEvent) TableName() string {
	return "events"
}

// EventItem is the client-facing view of an event, with the image path
// resolved to a retrievable URL.
type EventItem struct {
	ID        uint      `json:"id"`
	ImageURL  string    `json:"image_url"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// EventUploadRequest is the sensor payload: a base64-encoded JPEG frame with
// an optional capture time.
type EventUploadRequest struct {
	Image     string     `json:"image" binding:"required"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type EventUploadResponse struct {
	Message  string    `json:"message"`
	Event    EventItem `json:"event"`
	ImageURL string    `json:"image_url"`
}

type EventListResponse struct {
	Events []EventItem `json:"events"`
}

type EventBulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

type EventBulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}
