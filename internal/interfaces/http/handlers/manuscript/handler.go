package manuscript

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/usecases"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/shared/constants"
	"github.com/openpublisher/openpublisher/internal/shared/errors"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
	"github.com/openpublisher/openpublisher/internal/shared/utils"
)

// UseCases groups the executors the handler dispatches to.
type UseCases struct {
	Submit            usecases.SubmitManuscriptExecutor
	AssignReviewer    usecases.AssignReviewerExecutor
	RespondAssignment usecases.RespondAssignmentExecutor
	SubmitReview      usecases.SubmitReviewExecutor
	SubmitCorrections usecases.SubmitCorrectionsExecutor
	ChangeStatus      usecases.ChangeStatusExecutor
	Publish           usecases.PublishManuscriptExecutor
	GetManuscript     usecases.GetManuscriptExecutor
	ListManuscripts   usecases.ListManuscriptsExecutor
	ListAssignments   usecases.ListAssignmentsExecutor
	GetProvenance     usecases.GetProvenanceExecutor
}

type Handler struct {
	uc     UseCases
	logger logger.Interface
}

func NewHandler(uc UseCases, logger logger.Interface) *Handler {
	RegisterValidators()
	return &Handler{
		uc:     uc,
		logger: logger,
	}
}

// SubmitManuscript handles POST /journals/:id/manuscripts
// @Summary Submit a manuscript
// @Description Submit a new manuscript to a journal and anchor the submission on the ledger
// @Tags manuscripts
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Journal ID"
// @Param manuscript body SubmitManuscriptRequest true "Manuscript data"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /journals/{id}/manuscripts [post]
func (h *Handler) SubmitManuscript(c *gin.Context) {
	journalID, err := utils.ParseUintParam(c, "id", "journal")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req SubmitManuscriptRequest
	if !h.bind(c, &req) {
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.uc.Submit.Execute(c.Request.Context(), req.ToCommand(actor, journalID))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Manuscript submitted successfully")
}

// ListJournalManuscripts handles GET /journals/:id/manuscripts
// @Summary List journal manuscripts
// @Description Get a paginated list of the manuscripts submitted to a journal
// @Tags manuscripts
// @Produce json
// @Security Bearer
// @Param id path int true "Journal ID"
// @Param status query string false "Status filter"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /journals/{id}/manuscripts [get]
func (h *Handler) ListJournalManuscripts(c *gin.Context) {
	journalID, err := utils.ParseUintParam(c, "id", "journal")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	p := utils.ParsePagination(c)
	result, err := h.uc.ListManuscripts.Execute(c.Request.Context(), usecases.ListManuscriptsQuery{
		JournalID: journalID,
		Status:    c.Query("status"),
		Page:      p.Page,
		PageSize:  p.PageSize,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetManuscript handles GET /manuscripts/:id
// @Summary Get manuscript by ID
// @Description Get details of a manuscript
// @Tags manuscripts
// @Produce json
// @Security Bearer
// @Param id path int true "Manuscript ID"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /manuscripts/{id} [get]
func (h *Handler) GetManuscript(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id", "manuscript")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.uc.GetManuscript.Execute(c.Request.Context(), usecases.GetManuscriptQuery{ManuscriptID: id})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// GetProvenance handles GET /manuscripts/:id/provenance
// @Summary Get manuscript provenance
// @Description Get the ordered event log of a manuscript with ledger transaction hashes
// @Tags manuscripts
// @Produce json
// @Security Bearer
// @Param id path int true "Manuscript ID"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /manuscripts/{id}/provenance [get]
func (h *Handler) GetProvenance(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id", "manuscript")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.uc.GetProvenance.Execute(c.Request.Context(), usecases.GetProvenanceQuery{ManuscriptID: id})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListAssignments handles GET /manuscripts/:id/assignments
// @Summary List reviewer assignments
// @Description List every reviewer assignment of a manuscript
// @Tags manuscripts
// @Produce json
// @Security Bearer
// @Param id path int true "Manuscript ID"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /manuscripts/{id}/assignments [get]
func (h *Handler) ListAssignments(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id", "manuscript")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.uc.ListAssignments.Execute(c.Request.Context(), usecases.ListAssignmentsQuery{ManuscriptID: id})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// AssignReviewer handles POST /manuscripts/:id/reviewers
// @Summary Assign reviewer
// @Description Assign a reviewer to a manuscript under review
// @Tags manuscripts
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Manuscript ID"
// @Param body body AssignReviewerRequest true "Assignment data"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /manuscripts/{id}/reviewers [post]
func (h *Handler) AssignReviewer(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id", "manuscript")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req AssignReviewerRequest
	if !h.bind(c, &req) {
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.uc.AssignReviewer.Execute(c.Request.Context(), usecases.AssignReviewerCommand{
		Actor:        actor,
		ManuscriptID: id,
		ReviewerID:   req.ReviewerID,
		DueDate:      req.DueDate,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Reviewer assigned successfully")
}

// RespondAssignment handles POST /manuscripts/:id/assignments/respond
// @Summary Respond to assignment
// @Description Accept or decline a pending reviewer assignment
// @Tags manuscripts
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Manuscript ID"
// @Param body body RespondAssignmentRequest true "Response"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Router /manuscripts/{id}/assignments/respond [post]
func (h *Handler) RespondAssignment(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id", "manuscript")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req RespondAssignmentRequest
	if !h.bind(c, &req) {
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.uc.RespondAssignment.Execute(c.Request.Context(), usecases.RespondAssignmentCommand{
		Actor:        actor,
		ManuscriptID: id,
		Accept:       *req.Accept,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	message := "Assignment declined"
	if *req.Accept {
		message = "Assignment accepted"
	}
	utils.SuccessResponse(c, http.StatusOK, message, result)
}

// SubmitReview handles POST /manuscripts/:id/reviews
// @Summary Submit review
// @Description Submit a review for a manuscript the caller is assigned to
// @Tags manuscripts
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Manuscript ID"
// @Param body body SubmitReviewRequest true "Review data"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /manuscripts/{id}/reviews [post]
func (h *Handler) SubmitReview(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id", "manuscript")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req SubmitReviewRequest
	if !h.bind(c, &req) {
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.uc.SubmitReview.Execute(c.Request.Context(), usecases.SubmitReviewCommand{
		Actor:          actor,
		ManuscriptID:   id,
		Comments:       req.Comments,
		Recommendation: req.Recommendation,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Review submitted successfully")
}

// SubmitCorrections handles POST /manuscripts/:id/corrections
// @Summary Submit corrections
// @Description Submit corrections for a manuscript in revision
// @Tags manuscripts
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Manuscript ID"
// @Param body body SubmitCorrectionsRequest true "Corrections data"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /manuscripts/{id}/corrections [post]
func (h *Handler) SubmitCorrections(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id", "manuscript")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req SubmitCorrectionsRequest
	if !h.bind(c, &req) {
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.uc.SubmitCorrections.Execute(c.Request.Context(), usecases.SubmitCorrectionsCommand{
		Actor:              actor,
		ManuscriptID:       id,
		ChangesDescription: req.ChangesDescription,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Corrections submitted successfully")
}

// ChangeStatus handles PATCH /manuscripts/:id/status
// @Summary Change manuscript status
// @Description Move a manuscript to another workflow status
// @Tags manuscripts
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Manuscript ID"
// @Param body body ChangeStatusRequest true "Target status"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /manuscripts/{id}/status [patch]
func (h *Handler) ChangeStatus(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id", "manuscript")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req ChangeStatusRequest
	if !h.bind(c, &req) {
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.uc.ChangeStatus.Execute(c.Request.Context(), usecases.ChangeStatusCommand{
		Actor:        actor,
		ManuscriptID: id,
		Status:       req.Status,
		Comment:      req.Comment,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Manuscript status updated", result)
}

// Publish handles POST /manuscripts/:id/publish
// @Summary Publish manuscript
// @Description Publish an accepted manuscript
// @Tags manuscripts
// @Produce json
// @Security Bearer
// @Param id path int true "Manuscript ID"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /manuscripts/{id}/publish [post]
func (h *Handler) Publish(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id", "manuscript")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.uc.Publish.Execute(c.Request.Context(), usecases.PublishManuscriptCommand{
		Actor:        actor,
		ManuscriptID: id,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Manuscript published successfully", result)
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Debugw("invalid request body", "path", c.FullPath(), "error", err)
		utils.ErrorResponseWithError(c, utils.TranslateValidationError(err))
		return false
	}
	return true
}

func (h *Handler) actor(c *gin.Context) (manuscript.Actor, bool) {
	v, _ := c.Get(constants.ContextKeyActor)
	actor, ok := v.(manuscript.Actor)
	if !ok || actor.ID == "" {
		utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("authentication required"))
		return manuscript.Actor{}, false
	}
	return actor, true
}
