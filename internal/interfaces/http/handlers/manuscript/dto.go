package manuscript

import (
	"time"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/usecases"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
)

type AuthorRequest struct {
	FirstName   string `json:"first_name" binding:"required,notblank,max=100"`
	LastName    string `json:"last_name" binding:"required,notblank,max=100"`
	Email       string `json:"email" binding:"required,email,max=254"`
	Affiliation string `json:"affiliation" binding:"max=255"`
	IsPrimary   bool   `json:"is_primary"`
}

type SubmitManuscriptRequest struct {
	Title    string          `json:"title" binding:"required,notblank,max=500"`
	Abstract string          `json:"abstract" binding:"max=10000"`
	Keywords []string        `json:"keywords" binding:"max=20,dive,max=100"`
	Authors  []AuthorRequest `json:"authors" binding:"required,min=1,max=50,dive"`
}

func (r *SubmitManuscriptRequest) ToCommand(actor manuscript.Actor, journalID uint) usecases.SubmitManuscriptCommand {
	authors := make([]usecases.AuthorInput, len(r.Authors))
	for i, a := range r.Authors {
		authors[i] = usecases.AuthorInput{
			FirstName:   a.FirstName,
			LastName:    a.LastName,
			Email:       a.Email,
			Affiliation: a.Affiliation,
			IsPrimary:   a.IsPrimary,
		}
	}
	return usecases.SubmitManuscriptCommand{
		Actor:     actor,
		JournalID: journalID,
		Title:     r.Title,
		Abstract:  r.Abstract,
		Keywords:  r.Keywords,
		Authors:   authors,
	}
}

type AssignReviewerRequest struct {
	ReviewerID string     `json:"reviewer_id" binding:"required,uuid"`
	DueDate    *time.Time `json:"due_date"`
}

type RespondAssignmentRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type SubmitReviewRequest struct {
	Comments       string `json:"comments" binding:"required,notblank,max=20000"`
	Recommendation string `json:"recommendation" binding:"required,recommendation"`
}

type SubmitCorrectionsRequest struct {
	ChangesDescription string `json:"changes_description" binding:"required,notblank,max=20000"`
}

type ChangeStatusRequest struct {
	Status  string `json:"status" binding:"required,manuscript_status"`
	Comment string `json:"comment" binding:"max=2000"`
}
