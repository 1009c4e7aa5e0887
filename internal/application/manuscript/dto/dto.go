package dto

import (
	"time"

	"github.com/openpublisher/openpublisher/internal/application/ledger"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
)

type AuthorDTO struct {
	ID          uint   `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Affiliation string `json:"affiliation"`
	IsPrimary   bool   `json:"is_primary"`
}

type ManuscriptDTO struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	Abstract    string      `json:"abstract"`
	Keywords    []string    `json:"keywords"`
	JournalID   uint        `json:"journal_id"`
	SubmittedBy string      `json:"submitted_by"`
	Status      string      `json:"status"`
	Authors     []AuthorDTO `json:"authors"`
	ReviewerIDs []string    `json:"reviewer_ids"`
	SubmittedAt time.Time   `json:"submitted_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type ManuscriptListItemDTO struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	JournalID   uint      `json:"journal_id"`
	Status      string    `json:"status"`
	SubmittedBy string    `json:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ReceiptDTO reports the ledger outcome of an operation. Status mirrors the
// receipt status field: 1 success, 0 failure.
type ReceiptDTO struct {
	TxHash      string `json:"tx_hash"`
	Status      int    `json:"status"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
	TxIndex     uint   `json:"tx_index"`
}

// AnchorDTO is the reconciliation status of an event's ledger anchor.
type AnchorDTO struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	TxHash    string `json:"tx_hash,omitempty"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error,omitempty"`
}

type EventDTO struct {
	ID           uint           `json:"id"`
	ManuscriptID uint           `json:"manuscript_id"`
	EventType    string         `json:"event_type"`
	Label        string         `json:"label"`
	ActorID      *string        `json:"actor_id"`
	Description  string         `json:"description"`
	TxHash       string         `json:"tx_hash"`
	Metadata     map[string]any `json:"metadata"`
	Timestamp    time.Time      `json:"timestamp"`
	Anchor       *AnchorDTO     `json:"anchor,omitempty"`
}

type AssignmentDTO struct {
	ID           uint       `json:"id"`
	ManuscriptID uint       `json:"manuscript_id"`
	ReviewerID   string     `json:"reviewer_id"`
	Status       string     `json:"status"`
	AssignedAt   time.Time  `json:"assigned_at"`
	DueDate      *time.Time `json:"due_date"`
	CompletedAt  *time.Time `json:"completed_at"`
}

type ProvenanceDTO struct {
	ManuscriptID uint       `json:"manuscript_id"`
	Status       string     `json:"status"`
	Events       []EventDTO `json:"events"`
}

func ToAuthorDTO(a *manuscript.Author) AuthorDTO {
	return AuthorDTO{
		ID:          a.ID(),
		FirstName:   a.FirstName(),
		LastName:    a.LastName(),
		Email:       a.Email(),
		Affiliation: a.Affiliation(),
		IsPrimary:   a.IsPrimary(),
	}
}

func ToManuscriptDTO(m *manuscript.Manuscript) *ManuscriptDTO {
	if m == nil {
		return nil
	}

	authors := make([]AuthorDTO, 0, len(m.Authors()))
	for _, a := range m.Authors() {
		authors = append(authors, ToAuthorDTO(a))
	}

	return &ManuscriptDTO{
		ID:          m.ID(),
		Title:       m.Title(),
		Abstract:    m.Abstract(),
		Keywords:    m.Keywords(),
		JournalID:   m.JournalID(),
		SubmittedBy: m.SubmittedBy(),
		Status:      m.Status().String(),
		Authors:     authors,
		ReviewerIDs: m.ReviewerIDs(),
		SubmittedAt: m.SubmittedAt(),
		UpdatedAt:   m.UpdatedAt(),
	}
}

func ToManuscriptListItemDTO(m *manuscript.Manuscript) ManuscriptListItemDTO {
	return ManuscriptListItemDTO{
		ID:          m.ID(),
		Title:       m.Title(),
		JournalID:   m.JournalID(),
		Status:      m.Status().String(),
		SubmittedBy: m.SubmittedBy(),
		SubmittedAt: m.SubmittedAt(),
	}
}

// ToReceiptDTO returns nil when no receipt was obtained.
func ToReceiptDTO(r *ledger.Receipt) *ReceiptDTO {
	if r == nil {
		return nil
	}
	status := 0
	if r.Success {
		status = 1
	}
	return &ReceiptDTO{
		TxHash:      r.TxHash,
		Status:      status,
		BlockNumber: r.BlockNumber,
		GasUsed:     r.GasUsed,
		TxIndex:     r.TxIndex,
	}
}

func ToAnchorDTO(a *manuscript.LedgerAnchor) *AnchorDTO {
	if a == nil {
		return nil
	}
	return &AnchorDTO{
		ID:        a.ID(),
		Status:    a.Status().String(),
		TxHash:    a.TxHash(),
		Attempts:  a.Attempts(),
		LastError: a.LastError(),
	}
}

// ToEventDTO attaches anchor when the event references one that was found.
func ToEventDTO(e *manuscript.Event, anchor *manuscript.LedgerAnchor) EventDTO {
	txHash := e.TxHash()
	if txHash == "" && anchor != nil && anchor.Status() == vo.AnchorConfirmed {
		// the event row is immutable; a later confirmation is read from the anchor
		txHash = anchor.TxHash()
	}
	return EventDTO{
		ID:           e.ID(),
		ManuscriptID: e.ManuscriptID(),
		EventType:    e.EventType().String(),
		Label:        e.EventType().Label(),
		ActorID:      e.ActorID(),
		Description:  e.Description(),
		TxHash:       txHash,
		Metadata:     e.Metadata(),
		Timestamp:    e.Timestamp(),
		Anchor:       ToAnchorDTO(anchor),
	}
}

func ToAssignmentDTO(a *manuscript.ReviewerAssignment) AssignmentDTO {
	return AssignmentDTO{
		ID:           a.ID(),
		ManuscriptID: a.ManuscriptID(),
		ReviewerID:   a.ReviewerID(),
		Status:       a.Status().String(),
		AssignedAt:   a.AssignedAt(),
		DueDate:      a.DueDate(),
		CompletedAt:  a.CompletedAt(),
	}
}

func ToAssignmentDTOs(list []*manuscript.ReviewerAssignment) []AssignmentDTO {
	out := make([]AssignmentDTO, 0, len(list))
	for _, a := range list {
		out = append(out, ToAssignmentDTO(a))
	}
	return out
}
