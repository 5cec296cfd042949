package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"data-playground/internal/playground/config"
	"data-playground/internal/playground/domain/client"
	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/domain/repository"
	"data-playground/internal/playground/domain/service"
	"data-playground/internal/shared/eventbus"
	sharedErrors "data-playground/internal/shared/errors"
	"data-playground/internal/shared/logger"
	"data-playground/internal/shared/utils"

	"github.com/go-playground/validator/v10"
)

// PlaygroundUsecaseInterface defines the collection, entry and share operations.
// Every method reads the principal from ctx.
type PlaygroundUsecaseInterface interface {
	ListCollections(ctx context.Context, req ListRequest) (*ListResult, error)
	CreateCollection(ctx context.Context, req CreateCollectionRequest) (*model.Collection, error)
	GetCollection(ctx context.Context, id string) (*CollectionView, error)
	UpdateCollection(ctx context.Context, id string, req UpdateCollectionRequest) (*CollectionView, error)
	DeleteCollection(ctx context.Context, id string) error

	ListEntries(ctx context.Context, id, filter string) ([]service.IndexedEntry, error)
	AddEntry(ctx context.Context, id string, raw map[string]interface{}) (*EntryResult, error)
	UpdateEntry(ctx context.Context, id string, index int, raw map[string]interface{}) (*EntryResult, error)
	DeleteEntry(ctx context.Context, id string, index int) error

	ListShares(ctx context.Context, id string) ([]model.Share, error)
	ShareCollection(ctx context.Context, id string, req ShareRequest) (*model.Share, error)
	RemoveShare(ctx context.Context, id, email string) error

	RecentActivity(ctx context.Context, id string, limit int64) ([]model.CollectionEvent, error)
	AuthorizeRead(ctx context.Context, id string) (*model.Collection, error)
	LinkPendingShares(ctx context.Context, email, userID string) (int64, error)
}

// PlaygroundUsecase implements PlaygroundUsecaseInterface.
type PlaygroundUsecase struct {
	repo      repository.CollectionRepository
	activity  repository.ActivityStore
	directory client.UserDirectory
	resolver  *service.AccessResolver
	filter    *service.EntryFilter
	events    eventbus.EventBusInterface
	validate  *validator.Validate
	config    *config.Config
	logger    logger.Logger
	now       func() time.Time
}

// NewPlaygroundUsecase wires the usecase. events and directory may be nil.
func NewPlaygroundUsecase(
	repo repository.CollectionRepository,
	activity repository.ActivityStore,
	directory client.UserDirectory,
	events eventbus.EventBusInterface,
	cfg *config.Config,
	log logger.Logger,
) (*PlaygroundUsecase, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	filter, err := service.NewEntryFilter(cfg.EntryFilterMaxLen)
	if err != nil {
		return nil, err
	}
	return &PlaygroundUsecase{
		repo:      repo,
		activity:  activity,
		directory: directory,
		resolver:  service.NewAccessResolver(repo),
		filter:    filter,
		events:    events,
		validate:  validator.New(),
		config:    cfg,
		logger:    log.WithComponent("playground_usecase"),
		now:       time.Now,
	}, nil
}

func principalFrom(ctx context.Context) (utils.Principal, error) {
	p, err := utils.GetPrincipalFromContext(ctx)
	if err != nil || p.UserID == "" {
		return utils.Principal{}, sharedErrors.NewAuthenticationError("authentication required").WithCause(sharedErrors.ErrUnauthorized)
	}
	return p, nil
}

// authorize resolves the caller against a collection at the required tier
func (uc *PlaygroundUsecase) authorize(ctx context.Context, id string, required model.AccessLevel) (utils.Principal, service.AccessResult, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return p, service.AccessResult{}, err
	}
	res, err := uc.resolver.Require(ctx, id, p, required)
	if err != nil && !sharedErrors.IsNotFound(err) {
		uc.logger.WithContext(ctx).Infof("access to collection %s at %s denied: %v", id, required, err)
	}
	return p, res, err
}

func (uc *PlaygroundUsecase) save(ctx context.Context, c *model.Collection) error {
	c.Touch(uc.now())
	if err := uc.repo.Save(ctx, c); err != nil {
		if errors.Is(err, sharedErrors.ErrCollectionNotFound) {
			// Deleted between load and save.
			return sharedErrors.NewNotFoundError("collection").WithCause(err)
		}
		return sharedErrors.WrapError(err, "failed to save collection")
	}
	return nil
}

// publish emits evt on the bus. Delivery failures are logged and never fail
// the mutation that already succeeded.
func (uc *PlaygroundUsecase) publish(ctx context.Context, evt model.CollectionEvent) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, eventbus.NewBasicEventWithSource(string(evt.Type), evt, "playground")); err != nil {
		uc.logger.WithContext(ctx).Warnf("failed to deliver %s for collection %s: %v", evt.Type, evt.CollectionID, err)
	}
}

func (uc *PlaygroundUsecase) validationErrors(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return sharedErrors.NewValidationError(err.Error())
	}
	ve := sharedErrors.NewValidationErrors()
	for _, fe := range fieldErrs {
		field := fe.Field()
		if field != "" {
			field = strings.ToLower(field[:1]) + field[1:]
		}
		ve.Add(field, describeTag(fe), nil)
	}
	return ve.ToAppError()
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must contain at least " + fe.Param() + " item"
	default:
		return "is invalid"
	}
}

// AuthorizeRead returns the collection when the caller may read it
func (uc *PlaygroundUsecase) AuthorizeRead(ctx context.Context, id string) (*model.Collection, error) {
	_, res, err := uc.authorize(ctx, id, model.AccessRead)
	if err != nil {
		return nil, err
	}
	return res.Collection, nil
}

// LinkPendingShares attaches userID to shares that were addressed to email
// before the account existed.
func (uc *PlaygroundUsecase) LinkPendingShares(ctx context.Context, email, userID string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || userID == "" {
		return 0, sharedErrors.NewValidationError("email and user id are required")
	}
	n, err := uc.repo.LinkShares(ctx, email, userID)
	if err != nil {
		return 0, sharedErrors.WrapError(err, "failed to link pending shares")
	}
	if n > 0 {
		uc.logger.WithContext(ctx).Infof("linked %d pending shares to user %s", n, userID)
	}
	return n, nil
}

var _ PlaygroundUsecaseInterface = (*PlaygroundUsecase)(nil)
