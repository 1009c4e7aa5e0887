package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/models"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
)

type EventMapper interface {
	ToModel(e *manuscript.Event) (*models.ManuscriptEventModel, error)
	ToDomain(model *models.ManuscriptEventModel) (*manuscript.Event, error)
	ToDomainList(list []models.ManuscriptEventModel) ([]*manuscript.Event, error)
}

type EventMapperImpl struct{}

func NewEventMapper() EventMapper {
	return &EventMapperImpl{}
}

func (m *EventMapperImpl) ToModel(e *manuscript.Event) (*models.ManuscriptEventModel, error) {
	metadata, err := json.Marshal(e.Metadata())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event metadata: %w", err)
	}

	return &models.ManuscriptEventModel{
		ID:           e.ID(),
		ManuscriptID: e.ManuscriptID(),
		EventType:    e.EventType().String(),
		ActorID:      e.ActorID(),
		Description:  e.Description(),
		TxHash:       e.TxHash(),
		AnchorID:     e.AnchorID(),
		Metadata:     datatypes.JSON(metadata),
		Timestamp:    biztime.ToMillis(e.Timestamp()),
	}, nil
}

func (m *EventMapperImpl) ToDomain(model *models.ManuscriptEventModel) (*manuscript.Event, error) {
	eventType, err := vo.NewEventType(model.EventType)
	if err != nil {
		return nil, fmt.Errorf("event %d: %w", model.ID, err)
	}

	var metadata map[string]any
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event metadata (id=%d): %w", model.ID, err)
		}
	}

	return manuscript.ReconstructEvent(
		model.ID,
		model.ManuscriptID,
		eventType,
		model.ActorID,
		model.Description,
		model.TxHash,
		model.AnchorID,
		metadata,
		biztime.FromMillis(model.Timestamp),
	), nil
}

func (m *EventMapperImpl) ToDomainList(list []models.ManuscriptEventModel) ([]*manuscript.Event, error) {
	events := make([]*manuscript.Event, 0, len(list))
	for i := range list {
		e, err := m.ToDomain(&list[i])
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
