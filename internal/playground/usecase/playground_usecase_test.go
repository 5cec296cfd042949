package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"data-playground/internal/playground/config"
	"data-playground/internal/playground/domain/client"
	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/testutil"
	"data-playground/internal/shared/eventbus"
	sharedErrors "data-playground/internal/shared/errors"
	"data-playground/internal/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var (
	alice = utils.Principal{UserID: "user-alice", Email: "alice@example.com", Username: "alice"}
	bob   = utils.Principal{UserID: "user-bob", Email: "bob@example.com", Username: "bob"}
	carol = utils.Principal{UserID: "user-carol", Email: "carol@example.com", Username: "carol"}
)

func as(p utils.Principal) context.Context {
	return utils.WithPrincipal(context.Background(), p)
}

func validationFields(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	require.True(t, sharedErrors.IsValidation(err), "expected validation error, got %v", err)
	var ve *sharedErrors.ValidationErrors
	require.True(t, errors.As(err, &ve))
	return ve.Fields()
}

type PlaygroundUsecaseTestSuite struct {
	suite.Suite
	repo     *testutil.MemoryCollectionRepository
	activity *testutil.MemoryActivityStore
	realtime RealtimeUsecase
	bus      *eventbus.EventBus
	uc       *PlaygroundUsecase
	clock    time.Time
}

func (s *PlaygroundUsecaseTestSuite) SetupTest() {
	s.repo = testutil.NewMemoryCollectionRepository()
	s.activity = testutil.NewMemoryActivityStore()
	s.realtime = NewRealtimeUsecase(nil)
	s.bus = eventbus.NewEventBus(nil)
	SubscribeCollectionEvents(s.bus, NewActivityRecorder(s.activity, nil))
	SubscribeCollectionEvents(s.bus, NewRealtimeForwarder(s.realtime))

	directory := testutil.NewStaticDirectory(
		client.DirectoryUser{ID: alice.UserID, Username: alice.Username, Email: alice.Email},
		client.DirectoryUser{ID: bob.UserID, Username: bob.Username, Email: bob.Email},
	)

	uc, err := NewPlaygroundUsecase(s.repo, s.activity, directory, s.bus, config.DefaultConfig(), nil)
	s.Require().NoError(err)
	s.clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time {
		s.clock = s.clock.Add(time.Second)
		return s.clock
	}
	s.uc = uc
}

func (s *PlaygroundUsecaseTestSuite) createTasks(owner utils.Principal) string {
	c, err := s.uc.CreateCollection(as(owner), CreateCollectionRequest{
		Name: "Tasks",
		Fields: []model.Field{
			{Name: "Task", Type: model.FieldTypeText},
			{Name: "Priority", Type: model.FieldTypeRating},
		},
	})
	s.Require().NoError(err)
	return c.IDHex()
}

func (s *PlaygroundUsecaseTestSuite) share(owner utils.Principal, id string, to utils.Principal, level model.AccessLevel) {
	_, err := s.uc.ShareCollection(as(owner), id, ShareRequest{Email: to.Email, AccessLevel: level})
	s.Require().NoError(err)
}

func (s *PlaygroundUsecaseTestSuite) TestCreateCollection() {
	c, err := s.uc.CreateCollection(as(alice), CreateCollectionRequest{
		Name:   "  Books ",
		Fields: []model.Field{{Name: "Title", Type: "TEXT"}, {Name: "Read on", Type: model.FieldTypeDate}},
	})
	s.Require().NoError(err)
	s.Equal("Books", c.Name)
	s.Equal(alice.UserID, c.Owner)
	s.Equal(model.FieldTypeText, c.Fields[0].Type)
	s.Empty(c.Entries)
	s.Equal(1, s.repo.Len())
	s.Equal([]model.CollectionEventType{model.EventCollectionCreated}, s.activity.Types(c.IDHex()))
}

func (s *PlaygroundUsecaseTestSuite) TestCreateCollection_Invalid() {
	_, err := s.uc.CreateCollection(as(alice), CreateCollectionRequest{Name: "", Fields: []model.Field{{Name: "a", Type: "text"}}})
	s.Contains(validationFields(s.T(), err), "name")

	_, err = s.uc.CreateCollection(as(alice), CreateCollectionRequest{Name: "x"})
	s.Contains(validationFields(s.T(), err), "fields")

	_, err = s.uc.CreateCollection(as(alice), CreateCollectionRequest{Name: "x", Fields: []model.Field{{Name: "a", Type: "blob"}}})
	s.Contains(validationFields(s.T(), err), "a")

	_, err = s.uc.CreateCollection(as(alice), CreateCollectionRequest{
		Name:   "x",
		Fields: []model.Field{{Name: "Title", Type: "text"}, {Name: "title", Type: "number"}},
	})
	s.True(sharedErrors.IsConflict(err))
	s.ErrorIs(err, sharedErrors.ErrDuplicateField)
	s.Equal(0, s.repo.Len())
}

func (s *PlaygroundUsecaseTestSuite) TestRequiresPrincipal() {
	_, err := s.uc.ListCollections(context.Background(), ListRequest{})
	s.True(sharedErrors.IsAuthentication(err))

	_, err = s.uc.GetCollection(context.Background(), "65f000000000000000000000")
	s.True(sharedErrors.IsAuthentication(err))
}

func (s *PlaygroundUsecaseTestSuite) TestGetCollection_NotFound() {
	_, err := s.uc.GetCollection(as(alice), "65f000000000000000000000")
	s.True(sharedErrors.IsNotFound(err))
	s.ErrorIs(err, sharedErrors.ErrCollectionNotFound)

	_, err = s.uc.GetCollection(as(alice), "not-an-id")
	s.True(sharedErrors.IsNotFound(err))
}

func (s *PlaygroundUsecaseTestSuite) TestOwnerHasAdminAccess() {
	id := s.createTasks(alice)

	view, err := s.uc.GetCollection(as(alice), id)
	s.Require().NoError(err)
	s.True(view.IsOwner)
	s.Equal(OwnerAccessLevel, view.AccessLevel)

	name := "Renamed"
	_, err = s.uc.UpdateCollection(as(alice), id, UpdateCollectionRequest{Name: &name})
	s.NoError(err)
	_, err = s.uc.ListShares(as(alice), id)
	s.NoError(err)
	_, err = s.uc.AddEntry(as(alice), id, map[string]interface{}{"Task": "Ship", "Priority": 4})
	s.NoError(err)
}

func (s *PlaygroundUsecaseTestSuite) TestSharedTiers() {
	id := s.createTasks(alice)
	s.share(alice, id, bob, model.AccessWrite)

	view, err := s.uc.GetCollection(as(bob), id)
	s.Require().NoError(err)
	s.Equal(string(model.AccessWrite), view.AccessLevel)
	s.False(view.IsOwner)
	s.Nil(view.SharedWith, "share list is admin-only")
	s.Nil(view.Collection.SharedWith)

	ownerView, err := s.uc.GetCollection(as(alice), id)
	s.Require().NoError(err)
	s.Require().NotNil(ownerView.SharedWith)
	s.Len(*ownerView.SharedWith, 1)

	_, err = s.uc.AddEntry(as(bob), id, map[string]interface{}{"Task": "Ship", "Priority": 4})
	s.NoError(err)

	name := "Mine now"
	_, err = s.uc.UpdateCollection(as(bob), id, UpdateCollectionRequest{Name: &name})
	s.True(sharedErrors.IsAuthorization(err))
	_, err = s.uc.ShareCollection(as(bob), id, ShareRequest{Email: "carol@example.com", AccessLevel: model.AccessRead})
	s.True(sharedErrors.IsAuthorization(err))

	s.share(alice, id, bob, model.AccessRead)
	_, err = s.uc.AddEntry(as(bob), id, map[string]interface{}{"Task": "Ship", "Priority": 4})
	s.True(sharedErrors.IsAuthorization(err))
	s.ErrorIs(err, sharedErrors.ErrForbidden)
	_, err = s.uc.ListEntries(as(bob), id, "")
	s.NoError(err)
}

func (s *PlaygroundUsecaseTestSuite) TestStrangerDenied() {
	id := s.createTasks(alice)
	s.share(alice, id, bob, model.AccessAdmin)

	_, err := s.uc.GetCollection(as(carol), id)
	s.True(sharedErrors.IsAuthorization(err))
	_, err = s.uc.ListEntries(as(carol), id, "")
	s.True(sharedErrors.IsAuthorization(err))
	_, err = s.uc.RecentActivity(as(carol), id, 0)
	s.True(sharedErrors.IsAuthorization(err))
}

func (s *PlaygroundUsecaseTestSuite) TestDeleteOnlyByOwner() {
	id := s.createTasks(alice)
	s.share(alice, id, bob, model.AccessAdmin)

	err := s.uc.DeleteCollection(as(bob), id)
	s.True(sharedErrors.IsAuthorization(err))
	s.Equal(1, s.repo.Len())

	s.Require().NoError(s.uc.DeleteCollection(as(alice), id))
	s.Equal(0, s.repo.Len())
	s.Empty(s.activity.Types(id), "deleting drops the activity stream")

	err = s.uc.DeleteCollection(as(alice), id)
	s.True(sharedErrors.IsNotFound(err))
}

func (s *PlaygroundUsecaseTestSuite) TestAddEntry_TasksExample() {
	id := s.createTasks(alice)

	res, err := s.uc.AddEntry(as(alice), id, map[string]interface{}{"Task": " Ship ", "Priority": 4})
	s.Require().NoError(err)
	s.Equal(0, res.Index)
	s.Equal(model.Entry{"Task": "Ship", "Priority": float64(4)}, res.Entry)

	_, err = s.uc.AddEntry(as(alice), id, map[string]interface{}{"Task": "Review"})
	s.Equal([]string{"Priority"}, validationFields(s.T(), err))

	entries, err := s.uc.ListEntries(as(alice), id, "")
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *PlaygroundUsecaseTestSuite) TestEntryPositions() {
	id := s.createTasks(alice)
	for _, task := range []string{"a", "b", "c"} {
		res, err := s.uc.AddEntry(as(alice), id, map[string]interface{}{"Task": task, "Priority": 1})
		s.Require().NoError(err)
		s.Equal(task, res.Entry["Task"])
	}

	entries, err := s.uc.ListEntries(as(alice), id, "")
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(2, entries[2].Index)
	s.Equal("c", entries[2].Entry["Task"])

	s.Require().NoError(s.uc.DeleteEntry(as(alice), id, 1))
	entries, err = s.uc.ListEntries(as(alice), id, "")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("a", entries[0].Entry["Task"])
	s.Equal("c", entries[1].Entry["Task"])
	s.Equal(1, entries[1].Index)

	res, err := s.uc.UpdateEntry(as(alice), id, 1, map[string]interface{}{"Task": "z", "Priority": "5"})
	s.Require().NoError(err)
	s.Equal(float64(5), res.Entry["Priority"])
}

func (s *PlaygroundUsecaseTestSuite) TestEntryIndexOutOfRange() {
	id := s.createTasks(alice)
	_, err := s.uc.AddEntry(as(alice), id, map[string]interface{}{"Task": "a", "Priority": 1})
	s.Require().NoError(err)
	saves := s.repo.SaveCalls

	for _, i := range []int{-1, 1} {
		_, err := s.uc.UpdateEntry(as(alice), id, i, map[string]interface{}{"Task": "a", "Priority": 1})
		s.True(sharedErrors.IsNotFound(err), "update %d", i)
		s.ErrorIs(err, sharedErrors.ErrEntryNotFound)

		err = s.uc.DeleteEntry(as(alice), id, i)
		s.True(sharedErrors.IsNotFound(err), "delete %d", i)
	}
	s.Equal(saves, s.repo.SaveCalls)
}

func (s *PlaygroundUsecaseTestSuite) TestUpdateEntry_InvalidKeepsOriginal() {
	id := s.createTasks(alice)
	_, err := s.uc.AddEntry(as(alice), id, map[string]interface{}{"Task": "a", "Priority": 1})
	s.Require().NoError(err)

	_, err = s.uc.UpdateEntry(as(alice), id, 0, map[string]interface{}{"Task": "a", "Priority": 7})
	s.Equal([]string{"Priority"}, validationFields(s.T(), err))

	entries, err := s.uc.ListEntries(as(alice), id, "")
	s.Require().NoError(err)
	s.Equal(float64(1), entries[0].Entry["Priority"])
}

func (s *PlaygroundUsecaseTestSuite) TestListEntries_Filter() {
	id := s.createTasks(alice)
	for i, task := range []string{"low", "high", "mid"} {
		_, err := s.uc.AddEntry(as(alice), id, map[string]interface{}{"Task": task, "Priority": []int{1, 5, 3}[i]})
		s.Require().NoError(err)
	}

	entries, err := s.uc.ListEntries(as(alice), id, "entry.Priority >= 3")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(1, entries[0].Index)
	s.Equal(2, entries[1].Index)

	_, err = s.uc.ListEntries(as(alice), id, "entry.Priority >=")
	s.Contains(validationFields(s.T(), err), "filter")
}

func (s *PlaygroundUsecaseTestSuite) TestUpdateCollection_SchemaChangeKeepsEntries() {
	id := s.createTasks(alice)
	_, err := s.uc.AddEntry(as(alice), id, map[string]interface{}{"Task": "a", "Priority": 1})
	s.Require().NoError(err)

	view, err := s.uc.UpdateCollection(as(alice), id, UpdateCollectionRequest{
		Fields: []model.Field{{Name: "Task", Type: "text"}, {Name: "Due", Type: "date"}},
	})
	s.Require().NoError(err)
	s.Equal("Tasks", view.Name)
	s.Len(view.Entries, 1)
	s.Equal(float64(1), view.Entries[0]["Priority"])

	_, err = s.uc.AddEntry(as(alice), id, map[string]interface{}{"Task": "b", "Priority": 1})
	fields := validationFields(s.T(), err)
	s.Equal([]string{"Due", "Priority"}, fields)

	_, err = s.uc.UpdateCollection(as(alice), id, UpdateCollectionRequest{})
	s.True(sharedErrors.IsValidation(err))
}

func (s *PlaygroundUsecaseTestSuite) TestShareTwiceKeepsOneEntry() {
	id := s.createTasks(alice)
	s.share(alice, id, bob, model.AccessRead)
	s.share(alice, id, utils.Principal{Email: "BOB@Example.com"}, model.AccessAdmin)

	shares, err := s.uc.ListShares(as(alice), id)
	s.Require().NoError(err)
	s.Require().Len(shares, 1)
	s.Equal("bob@example.com", shares[0].Email)
	s.Equal(model.AccessAdmin, shares[0].AccessLevel)
	s.Equal(bob.UserID, shares[0].UserID)
}

func (s *PlaygroundUsecaseTestSuite) TestShareValidation() {
	id := s.createTasks(alice)

	_, err := s.uc.ShareCollection(as(alice), id, ShareRequest{Email: "not-an-email", AccessLevel: model.AccessRead})
	s.Contains(validationFields(s.T(), err), "email")

	_, err = s.uc.ShareCollection(as(alice), id, ShareRequest{Email: "bob@example.com", AccessLevel: "owner"})
	s.Contains(validationFields(s.T(), err), "accessLevel")

	_, err = s.uc.ShareCollection(as(alice), id, ShareRequest{Email: "Alice@example.com", AccessLevel: model.AccessRead})
	s.Equal([]string{"email"}, validationFields(s.T(), err))

	s.share(alice, id, bob, model.AccessAdmin)
	_, err = s.uc.ShareCollection(as(bob), id, ShareRequest{Email: alice.Email, AccessLevel: model.AccessRead})
	s.Equal([]string{"email"}, validationFields(s.T(), err), "admins cannot share back to the owner")
}

func (s *PlaygroundUsecaseTestSuite) TestPendingShareMatchesByEmailThenLinks() {
	id := s.createTasks(alice)
	share, err := s.uc.ShareCollection(as(alice), id, ShareRequest{Email: carol.Email, AccessLevel: model.AccessRead})
	s.Require().NoError(err)
	s.Empty(share.UserID)

	_, err = s.uc.GetCollection(as(carol), id)
	s.NoError(err, "email arm of the match grants access before linking")

	n, err := s.uc.LinkPendingShares(context.Background(), "CAROL@example.com", carol.UserID)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	shares, err := s.uc.ListShares(as(alice), id)
	s.Require().NoError(err)
	s.Equal(carol.UserID, shares[0].UserID)

	renamed := utils.Principal{UserID: carol.UserID, Email: "carol@new.example.com"}
	_, err = s.uc.GetCollection(as(renamed), id)
	s.NoError(err, "user id arm of the match grants access after linking")

	_, err = s.uc.LinkPendingShares(context.Background(), "", carol.UserID)
	s.True(sharedErrors.IsValidation(err))
}

func (s *PlaygroundUsecaseTestSuite) TestRemoveShare() {
	id := s.createTasks(alice)
	s.share(alice, id, bob, model.AccessWrite)

	err := s.uc.RemoveShare(as(alice), id, "nobody@example.com")
	s.True(sharedErrors.IsNotFound(err))
	s.ErrorIs(err, sharedErrors.ErrShareNotFound)

	s.Require().NoError(s.uc.RemoveShare(as(alice), id, "Bob@Example.com"))
	_, err = s.uc.GetCollection(as(bob), id)
	s.True(sharedErrors.IsAuthorization(err))
}

func (s *PlaygroundUsecaseTestSuite) TestListCollections() {
	own1 := s.createTasks(alice)
	s.createTasks(alice)
	_, err := s.uc.CreateCollection(as(bob), CreateCollectionRequest{Name: "Bob's books", Fields: []model.Field{{Name: "Title", Type: "text"}}})
	s.Require().NoError(err)
	s.share(alice, own1, bob, model.AccessWrite)

	res, err := s.uc.ListCollections(as(bob), ListRequest{})
	s.Require().NoError(err)
	s.Require().Len(res.Collections, 2)
	s.Equal(int64(2), res.Pagination.Total)
	s.Equal(10, res.Pagination.Limit)

	byLevel := map[string]string{}
	for _, c := range res.Collections {
		byLevel[c.Name] = c.AccessLevel
	}
	s.Equal(map[string]string{"Tasks": "write", "Bob's books": OwnerAccessLevel}, byLevel)
	s.Equal("Tasks", res.Collections[0].Name, "most recently updated first")

	res, err = s.uc.ListCollections(as(alice), ListRequest{Page: 2, Limit: 1})
	s.Require().NoError(err)
	s.Len(res.Collections, 1)
	s.Equal(Pagination{Page: 2, Limit: 1, Total: 2, TotalPages: 2}, res.Pagination)

	res, err = s.uc.ListCollections(as(bob), ListRequest{Search: "BOOK"})
	s.Require().NoError(err)
	s.Require().Len(res.Collections, 1)
	s.Equal("Bob's books", res.Collections[0].Name)

	res, err = s.uc.ListCollections(as(carol), ListRequest{Limit: 1000})
	s.Require().NoError(err)
	s.Empty(res.Collections)
	s.Equal(100, res.Pagination.Limit)
	s.Equal(int64(0), res.Pagination.TotalPages)
}

func (s *PlaygroundUsecaseTestSuite) TestListCollections_HugePage() {
	s.createTasks(alice)

	res, err := s.uc.ListCollections(as(alice), ListRequest{Page: math.MaxInt, Limit: 7})
	s.Require().NoError(err)
	s.Empty(res.Collections)
	s.Equal(int(math.MaxInt64/7), res.Pagination.Page)
	s.Equal(int64(1), res.Pagination.Total)
}

func (s *PlaygroundUsecaseTestSuite) TestRecentActivity() {
	id := s.createTasks(alice)
	_, err := s.uc.AddEntry(as(alice), id, map[string]interface{}{"Task": "a", "Priority": 1})
	s.Require().NoError(err)
	s.share(alice, id, bob, model.AccessRead)

	events, err := s.uc.RecentActivity(as(bob), id, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(model.EventShareUpserted, events[0].Type)
	s.Equal("bob@example.com", events[0].Email)
	s.Equal(model.EventEntryAdded, events[1].Type)
	s.Require().NotNil(events[1].Index)
	s.Equal(0, *events[1].Index)
}

func (s *PlaygroundUsecaseTestSuite) TestRealtimeReceivesEntryEvents() {
	id := s.createTasks(alice)
	ch := make(chan model.CollectionEvent, 4)
	s.Require().NoError(s.realtime.Subscribe(context.Background(), "sub-1", id, ch))

	_, err := s.uc.AddEntry(as(alice), id, map[string]interface{}{"Task": "a", "Priority": 1})
	s.Require().NoError(err)

	select {
	case evt := <-ch:
		s.Equal(model.EventEntryAdded, evt.Type)
		s.Equal(alice.UserID, evt.ActorID)
	default:
		s.Fail("expected an event on the subscriber channel")
	}
}

func TestPlaygroundUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(PlaygroundUsecaseTestSuite))
}

func TestRealtimeUsecase_DropsWhenFull(t *testing.T) {
	rt := NewRealtimeUsecase(nil)
	ch := make(chan model.CollectionEvent, 1)
	require.NoError(t, rt.Subscribe(context.Background(), "s", "c1", ch))
	assert.Equal(t, 1, rt.SubscriberCount("c1"))

	evt := model.NewCollectionEvent(model.EventEntryAdded, "c1", "u")
	require.NoError(t, rt.PublishEvent(context.Background(), evt))
	require.NoError(t, rt.PublishEvent(context.Background(), evt))
	assert.Len(t, ch, 1)

	require.NoError(t, rt.PublishEvent(context.Background(), model.NewCollectionEvent(model.EventEntryAdded, "other", "u")))
	assert.Len(t, ch, 1)

	require.NoError(t, rt.Unsubscribe(context.Background(), "s", "c1"))
	assert.Equal(t, 0, rt.SubscriberCount("c1"))
}

func TestActivityRecorder_IgnoresForeignPayloads(t *testing.T) {
	store := testutil.NewMemoryActivityStore()
	handler := NewActivityRecorder(store, nil)
	assert.NoError(t, handler(context.Background(), eventbus.NewBasicEvent("entry.added", "not an event")))
}
