package playground

import (
	"context"
	"fmt"

	"data-playground/internal/auth/usecase"
	"data-playground/internal/playground/adapter/auth_client"
	pghttp "data-playground/internal/playground/adapter/http"
	"data-playground/internal/playground/adapter/persistence"
	"data-playground/internal/playground/adapter/persistence/mongodb"
	"data-playground/internal/playground/config"
	"data-playground/internal/playground/domain/repository"
	pgusecase "data-playground/internal/playground/usecase"
	"data-playground/internal/shared/eventbus"
	"data-playground/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// PlaygroundModule wires collections, entries, sharing, activity and the
// live feed.
type PlaygroundModule struct {
	usecase   pgusecase.PlaygroundUsecaseInterface
	realtime  pgusecase.RealtimeUsecase
	handler   *pghttp.CollectionHTTPHandler
	wsHandler *pghttp.WebSocketHandler
	config    *config.Config
}

// NewPlaygroundModule builds the module. redisClient may be nil, in which
// case activity is not recorded.
func NewPlaygroundModule(
	db *mongo.Database,
	redisClient *redis.Client,
	users auth_client.UserLookup,
	bus eventbus.EventBusInterface,
	cfg *config.Config,
	log logger.Logger,
) (*PlaygroundModule, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	var activity repository.ActivityStore = persistence.NopActivityStore{}
	if redisClient != nil {
		activity = persistence.NewRedisActivityStore(redisClient, cfg.ActivityStreamMaxLen, log)
	}

	uc, err := pgusecase.NewPlaygroundUsecase(
		mongodb.NewMongoCollectionRepository(db),
		activity,
		auth_client.NewUserDirectoryAdapter(users),
		bus,
		cfg,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create playground usecase: %w", err)
	}

	realtime := pgusecase.NewRealtimeUsecase(log)
	if redisClient != nil {
		pgusecase.SubscribeCollectionEvents(bus, pgusecase.NewActivityRecorder(activity, log))
	}
	pgusecase.SubscribeCollectionEvents(bus, pgusecase.NewRealtimeForwarder(realtime))
	bus.Subscribe(usecase.EventUserRegistered, NewRegistrationLinker(uc, log))

	return &PlaygroundModule{
		usecase:   uc,
		realtime:  realtime,
		handler:   pghttp.NewCollectionHTTPHandler(uc, log),
		wsHandler: pghttp.NewWebSocketHandler(uc, realtime, cfg.Realtime.ClientSendChannelBuffer, log),
		config:    cfg,
	}, nil
}

// NewRegistrationLinker attaches shares addressed to a newly registered
// email to the new account.
func NewRegistrationLinker(uc pgusecase.PlaygroundUsecaseInterface, log logger.Logger) eventbus.Handler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return func(ctx context.Context, event eventbus.Event) error {
		registered, ok := event.Data().(usecase.UserRegistered)
		if !ok {
			log.Warnf("unexpected %s payload %T", event.Type(), event.Data())
			return nil
		}
		_, err := uc.LinkPendingShares(ctx, registered.Email, registered.UserID)
		return err
	}
}

// RegisterRoutes mounts the REST API under api and the live feed under root
func (m *PlaygroundModule) RegisterRoutes(api fiber.Router, root fiber.Router, protect fiber.Handler) {
	m.handler.RegisterRoutes(api, protect)
	m.wsHandler.RegisterRoutes(root, m.config.Realtime.WebSocketPath, protect)
}

// GetUsecase returns the playground usecase
func (m *PlaygroundModule) GetUsecase() pgusecase.PlaygroundUsecaseInterface {
	return m.usecase
}
