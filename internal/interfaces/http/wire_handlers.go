package http

import (
	"github.com/openpublisher/openpublisher/internal/interfaces/http/handlers"
	manuscripthandlers "github.com/openpublisher/openpublisher/internal/interfaces/http/handlers/manuscript"
)

// allHandlers holds all HTTP handler instances used by the application.
type allHandlers struct {
	manuscriptHandler *manuscripthandlers.Handler
	healthHandler     *handlers.HealthHandler
}

func (c *Container) newHandlers() *allHandlers {
	u := c.ucs

	manuscriptHandler := manuscripthandlers.NewHandler(manuscripthandlers.UseCases{
		Submit:            u.submitManuscriptUC,
		AssignReviewer:    u.assignReviewerUC,
		RespondAssignment: u.respondAssignmentUC,
		SubmitReview:      u.submitReviewUC,
		SubmitCorrections: u.submitCorrectionsUC,
		ChangeStatus:      u.changeStatusUC,
		Publish:           u.publishUC,
		GetManuscript:     u.getManuscriptUC,
		ListManuscripts:   u.listManuscriptsUC,
		ListAssignments:   u.listAssignmentsUC,
		GetProvenance:     u.getProvenanceUC,
	}, c.log.Named("manuscript-handler"))

	return &allHandlers{
		manuscriptHandler: manuscriptHandler,
		healthHandler:     handlers.NewHealthHandler(&gormPinger{db: c.db}, c.ledgerClient, c.log),
	}
}
