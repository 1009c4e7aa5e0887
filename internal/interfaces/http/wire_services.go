package http

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/openpublisher/openpublisher/internal/infrastructure/auth"
	"github.com/openpublisher/openpublisher/internal/infrastructure/cache"
	"github.com/openpublisher/openpublisher/internal/infrastructure/config"
	"github.com/openpublisher/openpublisher/internal/infrastructure/email"
	infraLedger "github.com/openpublisher/openpublisher/internal/infrastructure/ledger"
	"github.com/openpublisher/openpublisher/internal/infrastructure/permission"
	"github.com/openpublisher/openpublisher/internal/infrastructure/pubsub"
	"github.com/openpublisher/openpublisher/internal/interfaces/http/middleware"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

// initInfrastructure connects Redis and the ledger, builds the locks,
// the permission enforcer, the notifier and the auth middlewares.
func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.cfg
	log := c.log

	if c.redis == nil && cfg.Redis.Enabled() {
		client, err := initRedis(ctx, cfg, log)
		if err != nil {
			return err
		}
		c.redis = client
	}

	// Nonce allocation and reconciler leadership must be exclusive across
	// instances when they share a signer.
	if c.redis != nil {
		c.locker = cache.NewRedisLocker(c.redis)
		c.eventBus = pubsub.NewRedisManuscriptEventBus(c.redis, log.Named("pubsub"))
		c.publisher = c.eventBus
	} else {
		log.Infow("redis not configured, using in-process locks and no event fan-out")
		c.locker = cache.NewLocalLocker()
	}

	if c.ledgerClient == nil {
		ethClient, err := infraLedger.Dial(ctx, &cfg.Ledger, c.locker, log.Named("ledger"))
		if err != nil {
			return fmt.Errorf("failed to initialize ledger client: %w", err)
		}
		c.ethClient = ethClient
		c.ledgerClient = ethClient
	}

	if cfg.Email.Enabled() {
		c.notifier = email.NewSMTPEmailService(email.SMTPConfig{
			Host:        cfg.Email.SMTPHost,
			Port:        cfg.Email.SMTPPort,
			Username:    cfg.Email.SMTPUser,
			Password:    cfg.Email.SMTPPassword,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
		}, log.Named("email"))
	} else {
		log.Infow("smtp not configured, reviewer notifications disabled")
	}

	enforcer, err := permission.NewEnforcer(c.db, log.Named("permission"))
	if err != nil {
		return fmt.Errorf("failed to initialize permission enforcer: %w", err)
	}
	if err := permission.InitManuscriptPermissions(enforcer, log); err != nil {
		return fmt.Errorf("failed to seed manuscript permissions: %w", err)
	}
	c.enforcer = enforcer

	c.jwtSvc = auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer)
	c.authMiddleware = middleware.NewAuthMiddleware(c.jwtSvc, log)
	c.permissionMiddleware = middleware.NewPermissionMiddleware(c.enforcer, log)

	return nil
}

// initRedis creates and tests the Redis client connection.
func initRedis(ctx context.Context, cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.GetAddr(), err)
	}
	log.Infow("redis connection established", "addr", cfg.Redis.GetAddr())

	return client, nil
}
