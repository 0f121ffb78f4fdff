package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"watchtower/internal/entity"
	"watchtower/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UploadEvent ingests a camera frame: decode, store, persist, alert.
func (h *HTTPHandler) UploadEvent(c *gin.Context) {
	var req entity.EventUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	imageBytes, err := decodeImagePayload(req.Image)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "image must be base64-encoded")
		return
	}

	capturedAt := time.Now().UTC()
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		capturedAt = req.Timestamp.UTC()
	}

	event, err := h.eventService.Ingest(c.Request.Context(), imageBytes, capturedAt, h.publicURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoImagePayload):
			BadRequest(c, ErrCodeInvalidRequest, "image payload is empty")
		case errors.Is(err, service.ErrUploadFailed):
			logrus.WithError(err).Error("image upload failed")
			ErrorResponse(c, http.StatusBadGateway, ErrCodeUploadFailed, "failed to store image")
		default:
			logrus.WithError(err).Error("event ingestion failed")
			InternalError(c, "failed to record event")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.EventsIngestedTotal.Inc()
	}

	item := h.makeEventItem(event)
	c.JSON(http.StatusCreated, entity.EventUploadResponse{
		Message:  "event recorded successfully",
		Event:    item,
		ImageURL: item.ImageURL,
	})
}

// ListEvents returns all events, newest capture first.
func (h *HTTPHandler) ListEvents(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	events, err := h.eventService.List(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list events")
		InternalError(c, "failed to list events")
		return
	}

	items := make([]entity.EventItem, 0, len(events))
	for i := range events {
		items = append(items, h.makeEventItem(&events[i]))
	}

	c.JSON(http.StatusOK, entity.EventListResponse{Events: items})
}

// GetEvent returns one event by id.
func (h *HTTPHandler) GetEvent(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	event, err := h.eventService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			NotFound(c, ErrCodeEventNotFound, "event not found")
			return
		}
		logrus.WithError(err).WithField("event_id", id).Error("failed to load event")
		InternalError(c, "failed to fetch event")
		return
	}

	c.JSON(http.StatusOK, h.makeEventItem(event))
}

// DeleteEvent removes one event and its stored image.
func (h *HTTPHandler) DeleteEvent(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.eventService.DeleteOne(ctx, id); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			NotFound(c, ErrCodeEventNotFound, "event not found")
			return
		}
		logrus.WithError(err).WithField("event_id", id).Error("failed to delete event")
		InternalError(c, "failed to delete event")
		return
	}

	if h.metrics != nil {
		h.metrics.EventsDeletedTotal.Inc()
	}

	c.JSON(http.StatusOK, gin.H{"message": "event deleted successfully"})
}

// DeleteEvents removes a batch of events and reports how many existed.
func (h *HTTPHandler) DeleteEvents(c *gin.Context) {
	var req entity.EventBulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	deleted, err := h.eventService.DeleteBulk(ctx, req.IDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptySelection):
			BadRequest(c, ErrCodeEmptySelection, "no event ids provided")
		case errors.Is(err, service.ErrEventNotFound):
			NotFound(c, ErrCodeEventNotFound, "no matching events found")
		default:
			logrus.WithError(err).Error("failed to bulk delete events")
			InternalError(c, "failed to delete events")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.EventsDeletedTotal.Add(float64(deleted))
	}

	c.JSON(http.StatusOK, entity.EventBulkDeleteResponse{Deleted: deleted})
}

func (h *HTTPHandler) makeEventItem(event *entity.DbEvent) entity.EventItem {
	if event == nil {
		return entity.EventItem{}
	}
	return entity.EventItem{
		ID:        event.ID,
		ImageURL:  h.publicURL(event.ImagePath),
		Timestamp: event.Timestamp,
		CreatedAt: event.CreatedAt,
	}
}

// decodeImagePayload accepts both a raw base64 string and a data URL
// ("data:image/jpeg;base64,...") as produced by browser capture code.
func decodeImagePayload(payload string) ([]byte, error) {
	trimmed := strings.TrimSpace(payload)
	if idx := strings.Index(trimmed, ","); idx >= 0 && strings.HasPrefix(trimmed, "data:") {
		trimmed = trimmed[idx+1:]
	}
	return base64.StdEncoding.DecodeString(trimmed)
}

func eventIDParam(c *gin.Context) (uint, bool) {
	idValue := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(idValue, 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid event id")
		return 0, false
	}
	return uint(id), true
}
