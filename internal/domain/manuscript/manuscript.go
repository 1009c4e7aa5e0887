// Package manuscript models the editorial lifecycle of a manuscript and the
// provenance records kept for it.
package manuscript

import (
	"fmt"
	"time"

	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
)

const (
	MaxTitleLength    = 250
	MaxAbstractLength = 500
)

type Manuscript struct {
	id          uint
	title       string
	abstract    string
	keywords    []string
	journalID   uint
	submittedBy string
	status      vo.ManuscriptStatus
	authors     []*Author
	reviewerIDs []string
	submittedAt time.Time
	updatedAt   time.Time
}

func NewManuscript(
	title string,
	abstract string,
	keywords []string,
	journalID uint,
	submittedBy string,
	authors []*Author,
) (*Manuscript, error) {
	if len(title) == 0 {
		return nil, fmt.Errorf("title is required")
	}
	if len([]rune(title)) > MaxTitleLength {
		return nil, fmt.Errorf("title exceeds maximum length of %d characters", MaxTitleLength)
	}
	if len([]rune(abstract)) > MaxAbstractLength {
		return nil, fmt.Errorf("abstract exceeds maximum length of %d characters", MaxAbstractLength)
	}
	if journalID == 0 {
		return nil, fmt.Errorf("journal ID is required")
	}
	if submittedBy == "" {
		return nil, fmt.Errorf("submitter is required")
	}
	if len(authors) == 0 {
		return nil, fmt.Errorf("at least one author is required")
	}

	if keywords == nil {
		keywords = []string{}
	}

	now := biztime.NowUTC()
	return &Manuscript{
		title:       title,
		abstract:    abstract,
		keywords:    keywords,
		journalID:   journalID,
		submittedBy: submittedBy,
		status:      vo.StatusSubmission,
		authors:     authors,
		reviewerIDs: []string{},
		submittedAt: now,
		updatedAt:   now,
	}, nil
}

func ReconstructManuscript(
	id uint,
	title string,
	abstract string,
	keywords []string,
	journalID uint,
	submittedBy string,
	status vo.ManuscriptStatus,
	authors []*Author,
	reviewerIDs []string,
	submittedAt, updatedAt time.Time,
) (*Manuscript, error) {
	if id == 0 {
		return nil, fmt.Errorf("manuscript ID cannot be zero")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	if keywords == nil {
		keywords = []string{}
	}
	if reviewerIDs == nil {
		reviewerIDs = []string{}
	}

	return &Manuscript{
		id:          id,
		title:       title,
		abstract:    abstract,
		keywords:    keywords,
		journalID:   journalID,
		submittedBy: submittedBy,
		status:      status,
		authors:     authors,
		reviewerIDs: reviewerIDs,
		submittedAt: submittedAt,
		updatedAt:   updatedAt,
	}, nil
}

func (m *Manuscript) ID() uint                    { return m.id }
func (m *Manuscript) Title() string               { return m.title }
func (m *Manuscript) Abstract() string            { return m.abstract }
func (m *Manuscript) JournalID() uint             { return m.journalID }
func (m *Manuscript) SubmittedBy() string         { return m.submittedBy }
func (m *Manuscript) Status() vo.ManuscriptStatus { return m.status }
func (m *Manuscript) SubmittedAt() time.Time      { return m.submittedAt }
func (m *Manuscript) UpdatedAt() time.Time        { return m.updatedAt }

func (m *Manuscript) Keywords() []string {
	out := make([]string, len(m.keywords))
	copy(out, m.keywords)
	return out
}

func (m *Manuscript) Authors() []*Author {
	out := make([]*Author, len(m.authors))
	copy(out, m.authors)
	return out
}

func (m *Manuscript) ReviewerIDs() []string {
	out := make([]string, len(m.reviewerIDs))
	copy(out, m.reviewerIDs)
	return out
}

func (m *Manuscript) SetID(id uint) error {
	if m.id != 0 {
		return fmt.Errorf("manuscript ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("manuscript ID cannot be zero")
	}
	m.id = id
	return nil
}

// BindAuthors replaces the submitted authors with their stored records,
// matched by email, keeping the submitted primary flag. It is only valid
// before the manuscript is persisted.
func (m *Manuscript) BindAuthors(stored []*Author) error {
	if m.id != 0 {
		return fmt.Errorf("authors of a stored manuscript cannot be rebound")
	}

	byEmail := make(map[string]*Author, len(stored))
	for _, a := range stored {
		byEmail[a.email] = a
	}

	bound := make([]*Author, 0, len(m.authors))
	for _, a := range m.authors {
		s, ok := byEmail[a.email]
		if !ok {
			return fmt.Errorf("no stored author for %s", a.email)
		}
		// primary authorship belongs to this manuscript, not to the author
		bound = append(bound, ReconstructAuthor(s.id, s.firstName, s.lastName, s.email, s.affiliation, a.isPrimary))
	}
	m.authors = bound
	return nil
}

// IsSubmitter reports whether profileID submitted this manuscript.
func (m *Manuscript) IsSubmitter(profileID string) bool {
	return profileID != "" && m.submittedBy == profileID
}

// HasAuthorEmail reports whether email belongs to one of the listed authors.
// Author emails are stored lower-case.
func (m *Manuscript) HasAuthorEmail(email string) bool {
	if email == "" {
		return false
	}
	for _, a := range m.authors {
		if a.email == email {
			return true
		}
	}
	return false
}

func (m *Manuscript) HasReviewer(reviewerID string) bool {
	for _, id := range m.reviewerIDs {
		if id == reviewerID {
			return true
		}
	}
	return false
}

// CheckAssignable returns ErrNotAssignable unless reviewers may be added in
// the current status.
func (m *Manuscript) CheckAssignable() error {
	if !m.status.AcceptsReviewers() {
		return ErrNotAssignable
	}
	return nil
}

// AddReviewer records reviewerID in the reviewer set and moves a freshly
// submitted manuscript into review. It reports whether the status changed.
func (m *Manuscript) AddReviewer(reviewerID string) (bool, error) {
	if reviewerID == "" {
		return false, fmt.Errorf("reviewer ID is required")
	}
	if err := m.CheckAssignable(); err != nil {
		return false, err
	}

	if !m.HasReviewer(reviewerID) {
		m.reviewerIDs = append(m.reviewerIDs, reviewerID)
	}

	advanced := false
	if m.status.IsSubmission() {
		m.status = vo.StatusReview
		advanced = true
	}
	m.updatedAt = biztime.NowUTC()
	return advanced, nil
}

// CheckStatusChange validates an editorial status change without applying it.
func (m *Manuscript) CheckStatusChange(target vo.ManuscriptStatus) error {
	if !target.IsValid() || !target.IsEditorialTarget() {
		return fmt.Errorf("%w: %s cannot be set directly", ErrInvalidTransition, target)
	}
	if !m.status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, m.status, target)
	}
	return nil
}

// ChangeStatus applies an editorial decision. Setting the current status
// again succeeds; the caller still records an event for it.
func (m *Manuscript) ChangeStatus(target vo.ManuscriptStatus) error {
	if err := m.CheckStatusChange(target); err != nil {
		return err
	}
	m.status = target
	m.updatedAt = biztime.NowUTC()
	return nil
}

func (m *Manuscript) CheckPublishable() error {
	if !m.status.CanPublish() {
		return fmt.Errorf("%w: status is %s", ErrNotPublishable, m.status)
	}
	return nil
}

func (m *Manuscript) Publish() error {
	if err := m.CheckPublishable(); err != nil {
		return err
	}
	m.status = vo.StatusPublished
	m.updatedAt = biztime.NowUTC()
	return nil
}
