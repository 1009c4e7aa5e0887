package valueobjects

import "fmt"

type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "PENDING"
	AssignmentAccepted  AssignmentStatus = "ACCEPTED"
	AssignmentDeclined  AssignmentStatus = "DECLINED"
	AssignmentCompleted AssignmentStatus = "COMPLETED"
)

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentPending:   {AssignmentAccepted, AssignmentDeclined, AssignmentCompleted},
	AssignmentAccepted:  {AssignmentCompleted},
	AssignmentDeclined:  {},
	AssignmentCompleted: {},
}

func NewAssignmentStatus(s string) (AssignmentStatus, error) {
	status := AssignmentStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid assignment status: %s", s)
	}
	return status, nil
}

func (s AssignmentStatus) String() string {
	return string(s)
}

func (s AssignmentStatus) IsValid() bool {
	_, ok := assignmentTransitions[s]
	return ok
}

// IsActive reports whether the assignment still blocks a second assignment
// of the same reviewer and allows a review to be submitted.
func (s AssignmentStatus) IsActive() bool {
	return s == AssignmentPending || s == AssignmentAccepted
}

func (s AssignmentStatus) CanTransitionTo(target AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// PriorStatuses lists the statuses a stored assignment may hold for an
// update to s to be valid. Active statuses include themselves so edits that
// keep the status still apply; terminal ones never do.
func (s AssignmentStatus) PriorStatuses() []AssignmentStatus {
	var prior []AssignmentStatus
	for from, targets := range assignmentTransitions {
		if from == s {
			if s.IsActive() {
				prior = append(prior, from)
			}
			continue
		}
		for _, t := range targets {
			if t == s {
				prior = append(prior, from)
				break
			}
		}
	}
	return prior
}
