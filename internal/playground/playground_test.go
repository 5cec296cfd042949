package playground

import (
	"context"
	"testing"

	authusecase "data-playground/internal/auth/usecase"
	"data-playground/internal/playground/config"
	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/testutil"
	pgusecase "data-playground/internal/playground/usecase"
	"data-playground/internal/shared/eventbus"
	"data-playground/internal/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationLinker_LinksPendingShares(t *testing.T) {
	repo := testutil.NewMemoryCollectionRepository()
	c := testutil.NewCollectionFixture().Tasks("user-alice")
	c.UpsertShare(model.Share{Email: "dave@example.com", AccessLevel: model.AccessWrite})
	require.NoError(t, repo.Create(context.Background(), c))

	uc, err := pgusecase.NewPlaygroundUsecase(repo, testutil.NewMemoryActivityStore(), nil, nil, config.DefaultConfig(), nil)
	require.NoError(t, err)

	bus := eventbus.NewEventBus(nil)
	bus.Subscribe(authusecase.EventUserRegistered, NewRegistrationLinker(uc, nil))

	require.NoError(t, bus.Publish(context.Background(), eventbus.NewBasicEvent(authusecase.EventUserRegistered,
		authusecase.UserRegistered{UserID: "user-dave", Email: "Dave@example.com"})))

	stored, err := repo.FindByID(context.Background(), c.IDHex())
	require.NoError(t, err)
	assert.Equal(t, "user-dave", stored.SharedWith[0].UserID)

	ctx := utils.WithPrincipal(context.Background(), utils.Principal{UserID: "user-dave", Email: "dave@changed.example.com"})
	_, err = uc.AddEntry(ctx, c.IDHex(), map[string]interface{}{"Task": "hi", "Priority": 1})
	assert.NoError(t, err)
}

func TestRegistrationLinker_IgnoresForeignPayload(t *testing.T) {
	uc, err := pgusecase.NewPlaygroundUsecase(testutil.NewMemoryCollectionRepository(), nil, nil, nil, config.DefaultConfig(), nil)
	require.NoError(t, err)
	handler := NewRegistrationLinker(uc, nil)
	assert.NoError(t, handler(context.Background(), eventbus.NewBasicEvent(authusecase.EventUserRegistered, "x")))
}
