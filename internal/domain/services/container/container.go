package container

import (
	"context"
	"sync"
	"time"

	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/infrastructure/config"
	"hoa-http-service/internal/infrastructure/mail"
	Logger "hoa-http-service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Option overrides a dependency of the container
type Option func(*ServiceContainer)

// WithMailer replaces the mailer built from config
func WithMailer(m mail.Mailer) Option {
	return func(c *ServiceContainer) { c.mailer = m }
}

// WithClock pins the time seen by every service
func WithClock(now services.Clock) Option {
	return func(c *ServiceContainer) { c.now = now }
}

// WithLocker replaces the lock and throttle store
func WithLocker(store interface {
	services.Locker
	services.Throttle
}) Option {
	return func(c *ServiceContainer) {
		c.locker = store
		c.throttle = store
	}
}

// ServiceContainer manages the dependency injection of every service
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client
	mailer mail.Mailer
	now    services.Clock

	// infrastructure
	redisService services.InterfaceRedisService
	locker       services.Locker
	throttle     services.Throttle
	notifier     services.InterfaceNotifier

	// business services
	jwtService          services.InterfaceJWTService
	authService         services.InterfaceAuthService
	boardService        services.InterfaceBoardService
	ownerService        services.InterfaceOwnerService
	messageService      services.InterfaceMessageService
	billingService      services.InterfaceBillingService
	announcementService services.InterfaceAnnouncementService
	documentService     services.InterfaceDocumentService
	surveyService       services.InterfaceSurveyService

	mu sync.RWMutex
}

// NewServiceContainer creates a new service container. redisClient may be nil,
// in which case locks and throttles are kept in memory.
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client, opts ...Option) *ServiceContainer {
	if db == nil {
		panic("database connection is nil")
	}

	if cfg == nil {
		panic("config is nil")
	}

	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			Logger.Warning("Redis ping failed: %v, using in-memory locks", err)
			redisClient = nil
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	for _, opt := range opts {
		opt(container)
	}
	container.initializeServices()
	return container
}

// initializeServices builds every service
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now == nil {
		c.now = services.SystemClock
	}
	if c.mailer == nil {
		c.mailer = mail.NewMailer(c.config)
	}

	if c.redis != nil {
		redisService := services.NewRedisService(c.redis)
		c.redisService = redisService
		if c.locker == nil {
			c.locker = redisService
			c.throttle = redisService
		}
	}
	if c.locker == nil {
		memory := services.NewMemoryStore(c.now)
		c.locker = memory
		c.throttle = memory
	}

	c.notifier = services.NewNotifier(c.db, c.mailer, mail.NewTemplates(c.config.PortalURL))

	c.jwtService = services.NewJWTService(c.config, c.now)
	c.boardService = services.NewBoardService(c.db, c.config, c.now)
	c.authService = services.NewAuthService(c.db, c.config, c.jwtService, c.notifier, c.throttle, c.now)
	c.ownerService = services.NewOwnerService(c.db, c.config, c.now)
	c.messageService = services.NewMessageService(c.db, c.config, c.notifier, c.now)
	c.billingService = services.NewBillingService(c.db, c.config, c.messageService, c.notifier, c.now)
	c.announcementService = services.NewAnnouncementService(c.db, c.config, c.notifier, c.now)
	c.documentService = services.NewDocumentService(c.db, c.config, c.now)
	c.surveyService = services.NewSurveyService(c.db, c.config, c.messageService, c.notifier, c.now)
}

// GetService returns the service registered under name
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "redis":
		return c.redisService
	case "locker":
		return c.locker
	case "throttle":
		return c.throttle
	case "notifier":
		return c.notifier
	case "jwt":
		return c.jwtService
	case "auth":
		return c.authService
	case "board":
		return c.boardService
	case "owner":
		return c.ownerService
	case "message":
		return c.messageService
	case "billing":
		return c.billingService
	case "announcement":
		return c.announcementService
	case "document":
		return c.documentService
	case "survey":
		return c.surveyService
	default:
		return nil
	}
}

// GetDB returns the database connection
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetConfig returns the configuration
func (c *ServiceContainer) GetConfig() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Now returns the container clock
func (c *ServiceContainer) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now()
}
