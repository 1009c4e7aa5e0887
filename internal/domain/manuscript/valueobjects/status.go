package valueobjects

import "fmt"

type ManuscriptStatus string

const (
	StatusSubmission  ManuscriptStatus = "SUBMISSION"
	StatusReview      ManuscriptStatus = "REVIEW"
	StatusAccepted    ManuscriptStatus = "ACCEPTED"
	StatusRejected    ManuscriptStatus = "REJECTED"
	StatusCopyediting ManuscriptStatus = "COPYEDITING"
	StatusPublished   ManuscriptStatus = "PUBLISHED"
)

var validManuscriptStatuses = map[ManuscriptStatus]bool{
	StatusSubmission:  true,
	StatusReview:      true,
	StatusAccepted:    true,
	StatusRejected:    true,
	StatusCopyediting: true,
	StatusPublished:   true,
}

// Status changes an editor may request explicitly. Submission and Review are
// entered by Submit and AssignReviewer, Published by Publish. Re-entering the
// current state is listed so a repeated request is accepted and recorded.
var editorialTransitions = map[ManuscriptStatus][]ManuscriptStatus{
	StatusSubmission:  {StatusAccepted, StatusRejected},
	StatusReview:      {StatusAccepted, StatusRejected},
	StatusAccepted:    {StatusAccepted, StatusRejected, StatusCopyediting},
	StatusRejected:    {StatusRejected},
	StatusCopyediting: {StatusCopyediting},
	StatusPublished:   {},
}

var editorialTargets = map[ManuscriptStatus]bool{
	StatusAccepted:    true,
	StatusRejected:    true,
	StatusCopyediting: true,
}

func NewManuscriptStatus(s string) (ManuscriptStatus, error) {
	status := ManuscriptStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid manuscript status: %s", s)
	}
	return status, nil
}

func (s ManuscriptStatus) String() string {
	return string(s)
}

func (s ManuscriptStatus) IsValid() bool {
	return validManuscriptStatuses[s]
}

// IsEditorialTarget reports whether s can be requested through ChangeStatus.
func (s ManuscriptStatus) IsEditorialTarget() bool {
	return editorialTargets[s]
}

func (s ManuscriptStatus) CanTransitionTo(target ManuscriptStatus) bool {
	for _, allowed := range editorialTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AcceptsReviewers reports whether reviewers may be assigned in this state.
func (s ManuscriptStatus) AcceptsReviewers() bool {
	return s == StatusSubmission || s == StatusReview || s == StatusAccepted
}

func (s ManuscriptStatus) CanPublish() bool {
	return s == StatusReview || s == StatusCopyediting
}

func (s ManuscriptStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusPublished
}

func (s ManuscriptStatus) IsSubmission() bool {
	return s == StatusSubmission
}

func (s ManuscriptStatus) IsPublished() bool {
	return s == StatusPublished
}

// AllManuscriptStatuses returns every status in lifecycle order.
func AllManuscriptStatuses() []ManuscriptStatus {
	return []ManuscriptStatus{
		StatusSubmission,
		StatusReview,
		StatusAccepted,
		StatusRejected,
		StatusCopyediting,
		StatusPublished,
	}
}
