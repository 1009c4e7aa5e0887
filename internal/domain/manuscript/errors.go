package manuscript

import "errors"

var (
	ErrManuscriptNotFound = errors.New("manuscript not found")

	ErrInvalidTransition = errors.New("invalid manuscript status transition")

	ErrNotAssignable = errors.New("manuscript is not in a state where reviewers can be assigned")

	ErrNotPublishable = errors.New("manuscript is not in a state where it can be published")

	ErrReviewerAlreadyAssigned = errors.New("reviewer already has an active assignment for this manuscript")

	ErrAssignmentNotFound = errors.New("assignment not found")

	ErrAssignmentNotActive = errors.New("assignment is not active")

	ErrAnchorNotFound = errors.New("ledger anchor not found")
)
