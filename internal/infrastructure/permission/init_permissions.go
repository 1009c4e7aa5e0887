package permission

import (
	"fmt"

	"github.com/openpublisher/openpublisher/internal/shared/authorization"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

// Resources and actions checked by the HTTP permission middleware.
const (
	ResourceManuscript = "manuscript"

	ActionRead              = "read"
	ActionSubmit            = "submit"
	ActionAssignReviewer    = "assign_reviewer"
	ActionRespondAssignment = "respond_assignment"
	ActionSubmitReview      = "submit_review"
	ActionSubmitCorrections = "submit_corrections"
	ActionChangeStatus      = "change_status"
	ActionPublish           = "publish"
)

func manuscriptPolicies() [][]string {
	admin := authorization.RoleAdmin.String()
	editor := authorization.RoleEditor.String()
	reviewer := authorization.RoleReviewer.String()
	author := authorization.RoleAuthor.String()

	return [][]string{
		{admin, ResourceManuscript, "*"},

		{editor, ResourceManuscript, ActionRead},
		{editor, ResourceManuscript, ActionAssignReviewer},
		{editor, ResourceManuscript, ActionChangeStatus},
		{editor, ResourceManuscript, ActionPublish},

		{reviewer, ResourceManuscript, ActionRead},
		{reviewer, ResourceManuscript, ActionRespondAssignment},
		{reviewer, ResourceManuscript, ActionSubmitReview},

		{author, ResourceManuscript, ActionRead},
		{author, ResourceManuscript, ActionSubmit},
		{author, ResourceManuscript, ActionSubmitCorrections},
	}
}

// InitManuscriptPermissions seeds the manuscript policies. Existing rows
// are left alone so it is safe on every boot.
func InitManuscriptPermissions(e *Enforcer, log logger.Interface) error {
	added := 0
	for _, policy := range manuscriptPolicies() {
		e.mu.Lock()
		ok, err := e.enforcer.AddPolicy(policy[0], policy[1], policy[2])
		e.mu.Unlock()
		if err != nil {
			log.Errorw("failed to add manuscript permission policy",
				"error", err,
				"role", policy[0],
				"resource", policy[1],
				"action", policy[2])
			return fmt.Errorf("failed to add policy [%s, %s, %s]: %w",
				policy[0], policy[1], policy[2], err)
		}
		if ok {
			added++
		}
	}

	log.Infow("manuscript permissions initialized", "added", added)
	return nil
}
