package usecases

import (
	"context"
	"fmt"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

// EventLog is the append-only provenance store. It exposes no way to change
// or remove an event.
type EventLog struct {
	eventRepo  manuscript.EventRepository
	anchorRepo manuscript.AnchorRepository
	publisher  EventPublisher
	logger     logger.Interface
}

// NewEventLog accepts a nil publisher when no fan-out is configured.
func NewEventLog(
	eventRepo manuscript.EventRepository,
	anchorRepo manuscript.AnchorRepository,
	publisher EventPublisher,
	logger logger.Interface,
) *EventLog {
	return &EventLog{
		eventRepo:  eventRepo,
		anchorRepo: anchorRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// Record appends one event. Called inside the transaction that applies the
// change the event describes.
func (l *EventLog) Record(
	ctx context.Context,
	manuscriptID uint,
	eventType vo.EventType,
	actor *manuscript.Actor,
	txHash string,
	anchorID *string,
	description string,
	metadata map[string]any,
) (*manuscript.Event, error) {
	var actorID *string
	if actor != nil && actor.ID != "" {
		id := actor.ID
		actorID = &id
	}

	event, err := manuscript.NewEvent(manuscriptID, eventType, actorID, txHash, anchorID, description, metadata)
	if err != nil {
		return nil, err
	}
	if err := l.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record %s event: %w", eventType, err)
	}

	l.logger.Debugw("manuscript event recorded",
		"manuscript_id", manuscriptID,
		"event_id", event.ID(),
		"event_type", eventType.String(),
		"tx_hash", txHash)
	return event, nil
}

// Publish announces committed events. Delivery failures are logged and
// never fail the operation.
func (l *EventLog) Publish(ctx context.Context, events ...*manuscript.Event) {
	if l.publisher == nil {
		return
	}
	for _, e := range events {
		if err := l.publisher.PublishEvent(ctx, e); err != nil {
			l.logger.Warnw("failed to publish manuscript event",
				"event_id", e.ID(),
				"event_type", e.EventType().String(),
				"error", err)
		}
	}
}

// Provenance returns every event of the manuscript, newest first.
func (l *EventLog) Provenance(ctx context.Context, manuscriptID uint) ([]*manuscript.Event, error) {
	return l.eventRepo.ListByManuscript(ctx, manuscriptID)
}

// Anchors loads the anchors referenced by events, keyed by anchor ID.
func (l *EventLog) Anchors(ctx context.Context, events []*manuscript.Event) (map[string]*manuscript.LedgerAnchor, error) {
	ids := make([]string, 0, len(events))
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		if id := e.AnchorID(); id != nil && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}

	out := make(map[string]*manuscript.LedgerAnchor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	anchors, err := l.anchorRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range anchors {
		out[a.ID()] = a
	}
	return out, nil
}
