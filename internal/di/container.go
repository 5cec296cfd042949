package di

import (
	"context"
	"fmt"
	"sync"

	"data-playground/internal/auth"
	authconfig "data-playground/internal/auth/config"
	"data-playground/internal/playground"
	pgconfig "data-playground/internal/playground/config"
	"data-playground/internal/shared/eventbus"
	"data-playground/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Container owns the application's connections and modules and shuts them
// down in reverse order.
type Container struct {
	mu sync.RWMutex

	Logger logger.Logger
	Bus    *eventbus.EventBus

	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	Redis       *redis.Client

	AuthConfig       *authconfig.Config
	PlaygroundConfig *pgconfig.Config

	AuthModule       *auth.AuthModule
	PlaygroundModule *playground.PlaygroundModule
}

// NewContainer creates an empty container with its event bus
func NewContainer(log logger.Logger, authCfg *authconfig.Config, pgCfg *pgconfig.Config) *Container {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Container{
		Logger:           log,
		Bus:              eventbus.NewEventBus(log),
		AuthConfig:       authCfg,
		PlaygroundConfig: pgCfg,
	}
}

// ConnectMongo connects and pings the database named in the auth config
func (c *Container) ConnectMongo(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.AuthConfig == nil {
		return fmt.Errorf("auth configuration is required to connect to MongoDB")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.AuthConfig.MongoDBURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	c.MongoClient = client
	c.MongoDB = client.Database(c.AuthConfig.DatabaseName)
	c.Logger.Infof("MongoDB connection established (database %s)", c.AuthConfig.DatabaseName)
	return nil
}

// ConnectRedis connects to Redis when it is enabled. A disabled Redis is
// not an error; activity recording is then switched off.
func (c *Container) ConnectRedis(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.PlaygroundConfig == nil || !c.PlaygroundConfig.Redis.Enabled {
		c.Logger.Info("Redis disabled, activity streams will not be recorded")
		return nil
	}
	client := pgconfig.NewRedisClient(c.PlaygroundConfig.Redis)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to ping Redis at %s: %w", c.PlaygroundConfig.Redis.GetAddr(), err)
	}
	c.Redis = client
	c.Logger.Infof("Redis connection established (%s)", c.PlaygroundConfig.Redis.GetAddr())
	return nil
}

// InitializeAuth builds the auth module
func (c *Container) InitializeAuth(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MongoDB == nil {
		return fmt.Errorf("MongoDB must be connected before the auth module")
	}
	module, err := auth.NewAuthModule(ctx, c.MongoDB, c.AuthConfig, c.Bus, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}
	c.AuthModule = module
	return nil
}

// InitializePlayground builds the playground module on top of auth
func (c *Container) InitializePlayground() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.AuthModule == nil {
		return fmt.Errorf("auth module must be initialized before the playground module")
	}
	if c.MongoDB == nil {
		return fmt.Errorf("MongoDB must be connected before the playground module")
	}
	module, err := playground.NewPlaygroundModule(c.MongoDB, c.Redis, c.AuthModule.GetUsecase(), c.Bus, c.PlaygroundConfig, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create playground module: %w", err)
	}
	c.PlaygroundModule = module
	return nil
}

// GetAuthModule returns the auth module instance
func (c *Container) GetAuthModule() *auth.AuthModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.AuthModule
}

// GetPlaygroundModule returns the playground module instance
func (c *Container) GetPlaygroundModule() *playground.PlaygroundModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.PlaygroundModule
}

// HealthCheck pings every connected backend. The map holds one status per
// backend; the error is the first failure.
func (c *Container) HealthCheck(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := map[string]string{"mongodb": "disconnected", "redis": "disabled"}
	var firstErr error

	if c.MongoClient != nil {
		if err := c.MongoClient.Ping(ctx, nil); err != nil {
			status["mongodb"] = "unhealthy"
			firstErr = fmt.Errorf("MongoDB health check failed: %w", err)
		} else {
			status["mongodb"] = "healthy"
		}
	} else {
		firstErr = fmt.Errorf("MongoDB is not connected")
	}

	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			status["redis"] = "unhealthy"
			if firstErr == nil {
				firstErr = fmt.Errorf("Redis health check failed: %w", err)
			}
		} else {
			status["redis"] = "healthy"
		}
	}

	return status, firstErr
}

// Close releases connections in reverse order of creation
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	c.PlaygroundModule = nil
	c.AuthModule = nil

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close Redis: %w", err))
		}
		c.Redis = nil
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect MongoDB: %w", err))
		}
		c.MongoClient = nil
		c.MongoDB = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
