package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"watchtower/internal/config"
	"watchtower/internal/entity"
	"watchtower/internal/mailer"
	"watchtower/internal/model"
	"watchtower/internal/storage"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Sentinel errors returned by the pipeline. Handlers map them onto the API
// error taxonomy.
var (
	// ErrNoImagePayload means the sensor sent no usable image bytes.
	ErrNoImagePayload = errors.New("no image payload")
	// ErrUploadFailed means the blob store rejected the capture. The
	// condition is retryable by the caller; nothing was persisted.
	ErrUploadFailed = errors.New("image upload failed")
	// ErrPersistFailed means the event record could not be written after a
	// successful upload. The uploaded blob is orphaned by policy rather
	// than rolled back.
	ErrPersistFailed = errors.New("event persist failed")
	// ErrEmptySelection means a bulk deletion was requested with no ids.
	ErrEmptySelection = errors.New("empty selection")
	// ErrEventNotFound means no event matched the requested id(s).
	ErrEventNotFound = errors.New("event not found")
)

const (
	uploadTimeout  = 30 * time.Second
	persistTimeout = 5 * time.Second
	notifyTimeout  = 20 * time.Second
	cleanupTimeout = 10 * time.Second
)

// EventService orchestrates the ingestion pipeline: blob upload, event
// persistence, conditional alert notification, and best-effort cleanup on
// deletion.
type EventService struct {
	repo    model.Repository
	storage storage.Storage
	mailer  mailer.Mailer

	// defaultRecipient is used when the root account carries no address.
	defaultRecipient string

	alertsSent prometheus.Counter
}

// NewEventService creates the pipeline service.
func NewEventService(repo model.Repository, store storage.Storage, mail mailer.Mailer, cfg config.Config) *EventService {
	return &EventService{
		repo:             repo,
		storage:          store,
		mailer:           mail,
		defaultRecipient: cfg.AlertEmail,
	}
}

// UseAlertCounter attaches a counter incremented for each delivered alert.
func (s *EventService) UseAlertCounter(counter prometheus.Counter) {
	s.alertsSent = counter
}

// Ingest uploads the capture, persists the event record, and dispatches an
// alert when the root account has alerts enabled. Notification failures are
// logged and swallowed; the event is already durable at that point.
func (s *EventService) Ingest(ctx context.Context, imageBytes []byte, capturedAt time.Time, imageURLFunc func(string) string) (*entity.DbEvent, error) {
	if len(imageBytes) == 0 {
		return nil, ErrNoImagePayload
	}
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	uploadCtx, cancelUpload := context.WithTimeout(ctx, uploadTimeout)
	defer cancelUpload()

	imagePath, err := s.storage.Save(uploadCtx, imageBytes, storage.SaveOptions{
		Category:  "events",
		Extension: "jpg",
		BaseName:  uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	event := &entity.DbEvent{
		ImagePath: imagePath,
		Timestamp: capturedAt,
	}

	persistCtx, cancelPersist := context.WithTimeout(ctx, persistTimeout)
	defer cancelPersist()

	if err := s.repo.CreateEvent(persistCtx, event); err != nil {
		logrus.WithError(err).WithField("image_path", imagePath).Error("event record not persisted, blob orphaned")
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	s.notify(ctx, event, imageURLFunc)

	return event, nil
}

// notify sends at most one alert per ingested event. Every failure path is
// logged and discarded.
func (s *EventService) notify(ctx context.Context, event *entity.DbEvent, imageURLFunc func(string) string) {
	if s.mailer == nil || !s.mailer.Enabled() {
		return
	}

	lookupCtx, cancelLookup := context.WithTimeout(ctx, persistTimeout)
	defer cancelLookup()

	root, err := s.repo.GetRootAccount(lookupCtx)
	if err != nil {
		logrus.WithError(err).Warn("alert skipped: root account unavailable")
		return
	}
	if !root.EmailAlerts {
		return
	}

	recipient := root.AlertRecipient()
	if recipient == "" {
		recipient = s.defaultRecipient
	}
	if recipient == "" {
		logrus.WithField("event_id", event.ID).Warn("alert skipped: no recipient configured")
		return
	}

	imageURL := event.ImagePath
	if imageURLFunc != nil {
		imageURL = imageURLFunc(event.ImagePath)
	}

	sendCtx, cancelSend := context.WithTimeout(ctx, notifyTimeout)
	defer cancelSend()

	if err := s.mailer.SendAlert(sendCtx, recipient, imageURL, event.Timestamp); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event_id":  event.ID,
			"recipient": recipient,
		}).Warn("alert email not delivered")
		return
	}
	if s.alertsSent != nil {
		s.alertsSent.Inc()
	}
}

// Get loads a single event.
func (s *EventService) Get(ctx context.Context, id uint) (*entity.DbEvent, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// List returns all events, most recent first.
func (s *EventService) List(ctx context.Context) ([]entity.DbEvent, error) {
	return s.repo.ListEvents(ctx)
}

// DeleteOne removes an event and its blob. Blob deletion is best effort: an
// orphaned blob never blocks removing the record.
func (s *EventService) DeleteOne(ctx context.Context, id uint) error {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	s.deleteBlob(ctx, event)

	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	return nil
}

// DeleteBulk removes every matching event and its blob, treating each blob
// cleanup as an independent best-effort action, and reports how many records
// were actually deleted.
func (s *EventService) DeleteBulk(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}

	events, err := s.repo.FindEventsByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, ErrEventNotFound
	}

	matched := make([]uint, 0, len(events))
	for i := range events {
		s.deleteBlob(ctx, &events[i])
		matched = append(matched, events[i].ID)
	}

	return s.repo.DeleteEventsByIDs(ctx, matched)
}

func (s *EventService) deleteBlob(ctx context.Context, event *entity.DbEvent) {
	if event == nil || event.ImagePath == "" {
		return
	}

	cleanupCtx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	if err := s.storage.Delete(cleanupCtx, event.ImagePath); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event_id":   event.ID,
			"image_path": event.ImagePath,
		}).Warn("blob not removed, record deletion continues")
	}
}
