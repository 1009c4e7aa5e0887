package manuscript

import (
	"fmt"
	"time"

	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
)

// Event is one immutable entry of a manuscript's provenance. It has no
// mutators; once stored it is never changed.
type Event struct {
	id           uint
	manuscriptID uint
	eventType    vo.EventType
	actorID      *string
	description  string
	txHash       string
	anchorID     *string
	metadata     map[string]any
	timestamp    time.Time
}

func NewEvent(
	manuscriptID uint,
	eventType vo.EventType,
	actorID *string,
	txHash string,
	anchorID *string,
	description string,
	metadata map[string]any,
) (*Event, error) {
	if manuscriptID == 0 {
		return nil, fmt.Errorf("manuscript ID is required")
	}
	if !eventType.IsValid() {
		return nil, fmt.Errorf("invalid event type: %s", eventType)
	}
	for _, key := range eventType.RequiredMetadataKeys() {
		if _, ok := metadata[key]; !ok {
			return nil, fmt.Errorf("%s event requires metadata key %q", eventType, key)
		}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &Event{
		manuscriptID: manuscriptID,
		eventType:    eventType,
		actorID:      actorID,
		description:  description,
		txHash:       txHash,
		anchorID:     anchorID,
		metadata:     metadata,
		timestamp:    biztime.NowUTC(),
	}, nil
}

func ReconstructEvent(
	id uint,
	manuscriptID uint,
	eventType vo.EventType,
	actorID *string,
	description string,
	txHash string,
	anchorID *string,
	metadata map[string]any,
	timestamp time.Time,
) *Event {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Event{
		id:           id,
		manuscriptID: manuscriptID,
		eventType:    eventType,
		actorID:      actorID,
		description:  description,
		txHash:       txHash,
		anchorID:     anchorID,
		metadata:     metadata,
		timestamp:    timestamp,
	}
}

func (e *Event) ID() uint                { return e.id }
func (e *Event) ManuscriptID() uint      { return e.manuscriptID }
func (e *Event) EventType() vo.EventType { return e.eventType }
func (e *Event) ActorID() *string        { return e.actorID }
func (e *Event) Description() string     { return e.description }
func (e *Event) TxHash() string          { return e.txHash }
func (e *Event) AnchorID() *string       { return e.anchorID }
func (e *Event) Timestamp() time.Time    { return e.timestamp }

func (e *Event) Metadata() map[string]any {
	out := make(map[string]any, len(e.metadata))
	for k, v := range e.metadata {
		out[k] = v
	}
	return out
}

// SetID is called once by the repository after insert.
func (e *Event) SetID(id uint) error {
	if e.id != 0 {
		return fmt.Errorf("event ID is already set")
	}
	e.id = id
	return nil
}
