package http

import (
	"github.com/openpublisher/openpublisher/internal/application/manuscript/usecases"
	"github.com/openpublisher/openpublisher/internal/shared/services/sanitize"
)

// allUseCases holds all use case instances used by the application.
type allUseCases struct {
	submitManuscriptUC  *usecases.SubmitManuscriptUseCase
	assignReviewerUC    *usecases.AssignReviewerUseCase
	respondAssignmentUC *usecases.RespondAssignmentUseCase
	submitReviewUC      *usecases.SubmitReviewUseCase
	submitCorrectionsUC *usecases.SubmitCorrectionsUseCase
	changeStatusUC      *usecases.ChangeStatusUseCase
	publishUC           *usecases.PublishManuscriptUseCase
	getManuscriptUC     *usecases.GetManuscriptUseCase
	listManuscriptsUC   *usecases.ListManuscriptsUseCase
	listAssignmentsUC   *usecases.ListAssignmentsUseCase
	getProvenanceUC     *usecases.GetProvenanceUseCase
	reconcileAnchorsUC  *usecases.ReconcileAnchorsUseCase
}

func (c *Container) newUseCases() *allUseCases {
	r := c.repos
	log := c.log
	sanitizer := sanitize.NewSanitizer()

	anchorer := usecases.NewAnchorer(c.ledgerClient, r.anchorRepo, c.cfg.Ledger.IsStrict(), log.Named("anchorer"))
	eventLog := usecases.NewEventLog(r.eventRepo, r.anchorRepo, c.publisher, log)

	return &allUseCases{
		submitManuscriptUC: usecases.NewSubmitManuscriptUseCase(
			r.manuscriptRepo, r.authorRepo, r.journals, anchorer, eventLog, r.txManager, sanitizer, log,
		),
		assignReviewerUC: usecases.NewAssignReviewerUseCase(
			r.manuscriptRepo, r.assignmentRepo, r.profiles, anchorer, eventLog, r.txManager, c.notifier, log,
		),
		respondAssignmentUC: usecases.NewRespondAssignmentUseCase(r.assignmentRepo, log),
		submitReviewUC: usecases.NewSubmitReviewUseCase(
			r.manuscriptRepo, r.assignmentRepo, anchorer, eventLog, r.txManager, sanitizer, log,
		),
		submitCorrectionsUC: usecases.NewSubmitCorrectionsUseCase(
			r.manuscriptRepo, anchorer, eventLog, r.txManager, sanitizer, log,
		),
		changeStatusUC: usecases.NewChangeStatusUseCase(
			r.manuscriptRepo, anchorer, eventLog, r.txManager, sanitizer, log,
		),
		publishUC: usecases.NewPublishManuscriptUseCase(
			r.manuscriptRepo, anchorer, eventLog, r.txManager, log,
		),
		getManuscriptUC:   usecases.NewGetManuscriptUseCase(r.manuscriptRepo, log),
		listManuscriptsUC: usecases.NewListManuscriptsUseCase(r.manuscriptRepo, r.journals, log),
		listAssignmentsUC: usecases.NewListAssignmentsUseCase(r.manuscriptRepo, r.assignmentRepo, log),
		getProvenanceUC:   usecases.NewGetProvenanceUseCase(r.manuscriptRepo, eventLog, log),
		reconcileAnchorsUC: usecases.NewReconcileAnchorsUseCase(
			r.anchorRepo, anchorer, c.ledgerClient, c.locker,
			usecases.ReconcileAnchorsConfig{
				BatchSize:   c.cfg.Reconciler.BatchSize,
				MaxAttempts: c.cfg.Ledger.MaxReconcileAttempts,
				GracePeriod: c.cfg.Ledger.ConfirmationTimeout,
			},
			log.Named("reconciler"),
		),
	}
}
