package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openpublisher/openpublisher/internal/infrastructure/config"
	"github.com/openpublisher/openpublisher/internal/infrastructure/pubsub"
	"github.com/openpublisher/openpublisher/internal/infrastructure/scheduler"
	"github.com/openpublisher/openpublisher/internal/interfaces/http/middleware"
	"github.com/openpublisher/openpublisher/internal/interfaces/http/routes"
	"github.com/openpublisher/openpublisher/internal/shared/goroutine"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	*Container
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(ctx context.Context, db *gorm.DB, cfg *config.Config, log logger.Interface, opts ...Option) (*Router, error) {
	c, err := NewContainer(ctx, db, cfg, log, opts...)
	if err != nil {
		return nil, err
	}
	return &Router{Container: c}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CustomLogger(r.log))
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.SecurityHeaders())
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))

	r.engine.GET("/health", r.hdlrs.healthHandler.HealthCheck)

	routes.SetupManuscriptRoutes(r.engine, &routes.ManuscriptRouteConfig{
		Handler:              r.hdlrs.manuscriptHandler,
		AuthMiddleware:       r.authMiddleware,
		PermissionMiddleware: r.permissionMiddleware,
	})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}

// StartBackground starts the anchor reconciler (when enabled) and the
// cross-instance event log tap (when Redis is configured).
func (r *Router) StartBackground(ctx context.Context) {
	if r.cfg.Reconciler.Enabled {
		r.reconcileScheduler = scheduler.NewAnchorReconcileScheduler(
			r.ucs.reconcileAnchorsUC, r.cfg.Reconciler.Interval, r.log.Named("scheduler"))
		r.reconcileScheduler.Start(ctx)
	}

	if r.eventBus == nil {
		return
	}

	subCtx, cancel := context.WithCancel(ctx)
	r.subscriberMu.Lock()
	r.subscriberCancel = cancel
	r.subscriberMu.Unlock()

	bus := r.eventBus
	goroutine.SafeGo(r.log, "manuscript-event-subscriber", func() {
		err := bus.Subscribe(subCtx, peerEventLogger(bus.InstanceID(), r.log))
		if err != nil && !errors.Is(err, context.Canceled) {
			r.log.Errorw("manuscript event subscriber exited", "error", err)
		}
	})
}

// peerEventLogger records events written by other instances. Logging is its
// only effect: every read goes to the database, so there is no local state
// for a peer event to refresh.
func peerEventLogger(self string, log logger.Interface) pubsub.ManuscriptEventHandler {
	return func(_ context.Context, msg pubsub.ManuscriptEventMessage) {
		if msg.InstanceID == self {
			return
		}
		log.Infow("manuscript event from peer instance",
			"manuscript_id", msg.ManuscriptID,
			"event_id", msg.EventID,
			"event_type", msg.EventType,
			"instance_id", msg.InstanceID)
	}
}

// Shutdown stops background work and closes network clients.
func (r *Router) Shutdown() {
	r.subscriberMu.Lock()
	if r.subscriberCancel != nil {
		r.subscriberCancel()
		r.subscriberCancel = nil
	}
	r.subscriberMu.Unlock()

	if r.reconcileScheduler != nil {
		r.reconcileScheduler.Stop()
	}

	r.Close()
}

type gormPinger struct {
	db *gorm.DB
}

func (p *gormPinger) PingContext(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
