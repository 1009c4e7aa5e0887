package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/openpublisher/openpublisher/internal/infrastructure/permission"
	manuscripthandlers "github.com/openpublisher/openpublisher/internal/interfaces/http/handlers/manuscript"
	"github.com/openpublisher/openpublisher/internal/interfaces/http/middleware"
)

type ManuscriptRouteConfig struct {
	Handler              *manuscripthandlers.Handler
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware
}

func SetupManuscriptRoutes(engine *gin.Engine, config *ManuscriptRouteConfig) {
	h := config.Handler
	can := func(action string) gin.HandlerFunc {
		return config.PermissionMiddleware.RequirePermission(permission.ResourceManuscript, action)
	}

	journals := engine.Group("/journals")
	journals.Use(config.AuthMiddleware.RequireActor())
	{
		journals.POST("/:id/manuscripts", can(permission.ActionSubmit), h.SubmitManuscript)
		journals.GET("/:id/manuscripts", can(permission.ActionRead), h.ListJournalManuscripts)
	}

	manuscripts := engine.Group("/manuscripts")
	manuscripts.Use(config.AuthMiddleware.RequireActor())
	{
		manuscripts.GET("/:id/provenance", can(permission.ActionRead), h.GetProvenance)
		manuscripts.GET("/:id/assignments", can(permission.ActionRead), h.ListAssignments)
		manuscripts.POST("/:id/reviewers", can(permission.ActionAssignReviewer), h.AssignReviewer)
		manuscripts.POST("/:id/assignments/respond", can(permission.ActionRespondAssignment), h.RespondAssignment)
		manuscripts.POST("/:id/reviews", can(permission.ActionSubmitReview), h.SubmitReview)
		manuscripts.POST("/:id/corrections", can(permission.ActionSubmitCorrections), h.SubmitCorrections)
		manuscripts.PATCH("/:id/status", can(permission.ActionChangeStatus), h.ChangeStatus)
		manuscripts.POST("/:id/publish", can(permission.ActionPublish), h.Publish)

		manuscripts.GET("/:id", can(permission.ActionRead), h.GetManuscript)
	}
}
