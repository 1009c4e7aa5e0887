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

// ManuscriptMapper converts between the Manuscript aggregate and its rows.
type ManuscriptMapper interface {
	ToModel(m *manuscript.Manuscript) (*models.ManuscriptModel, error)

	// ToDomain needs the author and reviewer rows loaded by the repository.
	ToDomain(model *models.ManuscriptModel, authors []*manuscript.Author, reviewerIDs []string) (*manuscript.Manuscript, error)

	AuthorToModel(a *manuscript.Author) *models.AuthorModel
	AuthorToDomain(model *models.AuthorModel, isPrimary bool) *manuscript.Author
}

type ManuscriptMapperImpl struct{}

func NewManuscriptMapper() ManuscriptMapper {
	return &ManuscriptMapperImpl{}
}

func (m *ManuscriptMapperImpl) ToModel(ms *manuscript.Manuscript) (*models.ManuscriptModel, error) {
	keywords, err := json.Marshal(ms.Keywords())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keywords: %w", err)
	}

	return &models.ManuscriptModel{
		ID:          ms.ID(),
		Title:       ms.Title(),
		Abstract:    ms.Abstract(),
		Keywords:    datatypes.JSON(keywords),
		JournalID:   ms.JournalID(),
		SubmittedBy: ms.SubmittedBy(),
		Status:      ms.Status().String(),
		SubmittedAt: biztime.ToMillis(ms.SubmittedAt()),
		UpdatedAt:   biztime.ToMillis(ms.UpdatedAt()),
	}, nil
}

func (m *ManuscriptMapperImpl) ToDomain(
	model *models.ManuscriptModel,
	authors []*manuscript.Author,
	reviewerIDs []string,
) (*manuscript.Manuscript, error) {
	if model == nil {
		return nil, nil
	}

	status, err := vo.NewManuscriptStatus(model.Status)
	if err != nil {
		return nil, fmt.Errorf("manuscript %d: %w", model.ID, err)
	}

	var keywords []string
	if len(model.Keywords) > 0 {
		if err := json.Unmarshal(model.Keywords, &keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords (id=%d): %w", model.ID, err)
		}
	}

	return manuscript.ReconstructManuscript(
		model.ID,
		model.Title,
		model.Abstract,
		keywords,
		model.JournalID,
		model.SubmittedBy,
		status,
		authors,
		reviewerIDs,
		biztime.FromMillis(model.SubmittedAt),
		biztime.FromMillis(model.UpdatedAt),
	)
}

func (m *ManuscriptMapperImpl) AuthorToModel(a *manuscript.Author) *models.AuthorModel {
	return &models.AuthorModel{
		ID:          a.ID(),
		FirstName:   a.FirstName(),
		LastName:    a.LastName(),
		Email:       a.Email(),
		Affiliation: a.Affiliation(),
	}
}

func (m *ManuscriptMapperImpl) AuthorToDomain(model *models.AuthorModel, isPrimary bool) *manuscript.Author {
	return manuscript.ReconstructAuthor(
		model.ID,
		model.FirstName,
		model.LastName,
		model.Email,
		model.Affiliation,
		isPrimary,
	)
}
