package mappers

import (
	"fmt"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/models"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
)

type AnchorMapper interface {
	ToModel(a *manuscript.LedgerAnchor) *models.LedgerAnchorModel
	ToDomain(model *models.LedgerAnchorModel) (*manuscript.LedgerAnchor, error)
}

type AnchorMapperImpl struct{}

func NewAnchorMapper() AnchorMapper {
	return &AnchorMapperImpl{}
}

func (m *AnchorMapperImpl) ToModel(a *manuscript.LedgerAnchor) *models.LedgerAnchorModel {
	return &models.LedgerAnchorModel{
		ID:            a.ID(),
		ManuscriptID:  a.ManuscriptID(),
		Action:        a.Action().String(),
		Payload:       a.Payload(),
		PayloadDigest: a.PayloadDigest(),
		TxHash:        a.TxHash(),
		Status:        a.Status().String(),
		Attempts:      a.Attempts(),
		LastError:     a.LastError(),
		BlockNumber:   a.BlockNumber(),
		GasUsed:       a.GasUsed(),
		TxIndex:       a.TxIndex(),
		CreatedAt:     biztime.ToMillis(a.CreatedAt()),
		UpdatedAt:     biztime.ToMillis(a.UpdatedAt()),
	}
}

func (m *AnchorMapperImpl) ToDomain(model *models.LedgerAnchorModel) (*manuscript.LedgerAnchor, error) {
	action, err := vo.NewEventType(model.Action)
	if err != nil {
		return nil, fmt.Errorf("anchor %s: %w", model.ID, err)
	}
	status := vo.AnchorStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("anchor %s: invalid status %q", model.ID, model.Status)
	}

	return manuscript.ReconstructLedgerAnchor(
		model.ID,
		model.ManuscriptID,
		action,
		model.Payload,
		model.PayloadDigest,
		model.TxHash,
		status,
		model.Attempts,
		model.LastError,
		model.BlockNumber,
		model.GasUsed,
		model.TxIndex,
		biztime.FromMillis(model.CreatedAt),
		biztime.FromMillis(model.UpdatedAt),
	), nil
}
