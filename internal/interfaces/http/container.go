package http

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appledger "github.com/openpublisher/openpublisher/internal/application/ledger"
	"github.com/openpublisher/openpublisher/internal/application/manuscript/usecases"
	"github.com/openpublisher/openpublisher/internal/infrastructure/auth"
	"github.com/openpublisher/openpublisher/internal/infrastructure/cache"
	"github.com/openpublisher/openpublisher/internal/infrastructure/config"
	infraLedger "github.com/openpublisher/openpublisher/internal/infrastructure/ledger"
	"github.com/openpublisher/openpublisher/internal/infrastructure/permission"
	"github.com/openpublisher/openpublisher/internal/infrastructure/pubsub"
	"github.com/openpublisher/openpublisher/internal/infrastructure/scheduler"
	"github.com/openpublisher/openpublisher/internal/interfaces/http/middleware"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

// Container holds the infrastructure components, repositories, use cases
// and handlers of the service and wires them together.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	repos *repositories
	ucs   *allUseCases
	hdlrs *allHandlers

	authMiddleware       *middleware.AuthMiddleware
	permissionMiddleware *middleware.PermissionMiddleware

	jwtSvc       *auth.JWTService
	enforcer     *permission.Enforcer
	locker       cache.Locker
	ledgerClient appledger.Client
	ethClient    *infraLedger.EthClient
	eventBus     *pubsub.RedisManuscriptEventBus
	publisher    usecases.EventPublisher
	notifier     usecases.ReviewerNotifier

	reconcileScheduler *scheduler.AnchorReconcileScheduler
	subscriberCancel   context.CancelFunc
	subscriberMu       sync.Mutex
}

// Option overrides a component NewContainer would otherwise build from
// configuration.
type Option func(*Container)

// WithLedgerClient skips dialing the configured RPC endpoint.
func WithLedgerClient(client appledger.Client) Option {
	return func(c *Container) {
		c.ledgerClient = client
	}
}

// WithRedisClient uses client instead of connecting to cfg.Redis.
func WithRedisClient(client *redis.Client) Option {
	return func(c *Container) {
		c.redis = client
	}
}

// NewContainer builds every component. ctx bounds the startup probes only.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, log logger.Interface, opts ...Option) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Section 1: Infrastructure - Redis, locks, ledger, auth, notifications
	if err := c.initInfrastructure(ctx); err != nil {
		c.Close()
		return nil, err
	}

	// Section 2: Repositories and use cases
	c.repos = newRepositories(db)
	c.ucs = c.newUseCases()

	// Section 3: Handlers
	c.hdlrs = c.newHandlers()

	return c, nil
}

// ReconcileAnchors exposes the reconciler for one-off runs from the CLI.
func (c *Container) ReconcileAnchors() usecases.ReconcileAnchorsExecutor {
	return c.ucs.reconcileAnchorsUC
}

// Close releases network clients. It is safe on a partially built container.
func (c *Container) Close() {
	if c.ethClient != nil {
		c.ethClient.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warnw("failed to close redis client", "error", err)
		}
	}
}
