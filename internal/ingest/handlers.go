// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/salesight/internal/cache"
	"github.com/tomtom215/salesight/internal/logging"
	"github.com/tomtom215/salesight/internal/metrics"
	"github.com/tomtom215/salesight/internal/models"
	"github.com/tomtom215/salesight/internal/validation"
)

// Outcome labels for ingest metrics.
const (
	outcomeStored    = "stored"
	outcomeLogged    = "logged"
	outcomeInvalid   = "invalid"
	outcomeDuplicate = "duplicate"
	outcomeError     = "error"
)

// errInvalidPayload marks messages that can never be processed.
var errInvalidPayload = errors.New("invalid payload")

// Writer appends to the datasets. store.Store implements it.
type Writer interface {
	AppendCatalogEntry(entry models.CatalogEntry) error
	AppendTransaction(rec models.TransactionRecord) error
}

// Handlers processes the messages of each ingest topic.
type Handlers struct {
	store  Writer
	seen   *cache.LRU[struct{}]
	logger zerolog.Logger
}

// NewHandlers creates handlers appending to store.
func NewHandlers(store Writer, cfg RouterConfig) (*Handlers, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	return &Handlers{
		store:  store,
		seen:   cache.NewLRU[struct{}](cfg.DedupCapacity, cfg.DedupTTL),
		logger: logging.With().Str("component", "ingest").Logger(),
	}, nil
}

// HandleItem appends a created item to the catalog.
func (h *Handlers) HandleItem(msg *message.Message) error {
	return h.handle(TopicCreateItem, msg, func() (string, error) {
		var ev models.ItemCreated
		if err := decode(msg.Payload, &ev); err != nil {
			return "", err
		}
		return outcomeStored, h.store.AppendCatalogEntry(models.CatalogEntry{
			ItemID:     *ev.ItemID,
			CategoryID: *ev.CategoryID,
			Name:       ev.Name,
		})
	})
}

// HandleCategory validates a created category. The catalog carries category
// ids only, so categories are logged rather than stored.
func (h *Handlers) HandleCategory(msg *message.Message) error {
	return h.handle(TopicCreateCategory, msg, func() (string, error) {
		var ev models.CategoryCreated
		if err := decode(msg.Payload, &ev); err != nil {
			return "", err
		}
		h.logger.Info().
			Int("category_id", *ev.CategoryID).
			Str("name", ev.Name).
			Msg("Category created")
		return outcomeLogged, nil
	})
}

// HandleOrder appends an order to the co-purchase log.
func (h *Handlers) HandleOrder(msg *message.Message) error {
	return h.handle(TopicCreateOrder, msg, func() (string, error) {
		var ev models.OrderCreated
		if err := decode(msg.Payload, &ev); err != nil {
			return "", err
		}
		// The validator has already checked the layout.
		date, err := time.Parse(models.DateLayout, ev.Date)
		if err != nil {
			return "", fmt.Errorf("%w: %w", errInvalidPayload, err)
		}
		return outcomeStored, h.store.AppendTransaction(models.TransactionRecord{
			ItemID:    *ev.ItemID,
			Date:      date,
			UnitPrice: ev.UnitPrice,
			Quantity:  ev.Quantity,
			UserID:    ev.UserID,
		})
	})
}

// handle runs process once per message UUID. Invalid payloads are dropped;
// store errors are returned for retry and release the UUID.
func (h *Handlers) handle(topic string, msg *message.Message, process func() (string, error)) error {
	if h.seen.MarkSeen(msg.UUID, struct{}{}) {
		metrics.RecordIngestMessage(topic, outcomeDuplicate)
		h.logger.Debug().Str("topic", topic).Str("message_uuid", msg.UUID).Msg("Duplicate message skipped")
		return nil
	}

	outcome, err := process()
	switch {
	case err == nil:
		metrics.RecordIngestMessage(topic, outcome)
		return nil
	case errors.Is(err, errInvalidPayload):
		metrics.RecordIngestMessage(topic, outcomeInvalid)
		h.logger.Warn().Err(err).Str("topic", topic).Str("message_uuid", msg.UUID).Msg("Dropping invalid message")
		return nil
	default:
		h.seen.Remove(msg.UUID)
		metrics.RecordIngestMessage(topic, outcomeError)
		return fmt.Errorf("%s: %w", topic, err)
	}
}

// StartCleanup periodically drops expired UUIDs from the dedup cache until
// ctx is cancelled.
func (h *Handlers) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := h.seen.CleanupExpired(); n > 0 {
					h.logger.Debug().Int("expired", n).Msg("Dedup cache cleaned")
				}
			}
		}
	}()
}

// decode unmarshals and validates a payload.
func decode(payload []byte, v interface{}) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %w", errInvalidPayload, err)
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		return fmt.Errorf("%w: %w", errInvalidPayload, verr)
	}
	return nil
}
