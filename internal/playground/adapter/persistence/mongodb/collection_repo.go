package mongodb

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/domain/repository"
	sharedErrors "data-playground/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionsCollectionName = "collections"

// MongoCollectionRepository stores each playground collection as one
// document with its entries and shares embedded.
type MongoCollectionRepository struct {
	collections *mongo.Collection
}

// NewMongoCollectionRepository creates a repository over db
func NewMongoCollectionRepository(db *mongo.Database) *MongoCollectionRepository {
	return &MongoCollectionRepository{collections: db.Collection(collectionsCollectionName)}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, sharedErrors.ErrCollectionNotFound
	}
	return oid, nil
}

// FindByID loads one collection
func (r *MongoCollectionRepository) FindByID(ctx context.Context, id string) (*model.Collection, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var c model.Collection
	if err := r.collections.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sharedErrors.ErrCollectionNotFound
		}
		return nil, err
	}
	return &c, nil
}

// listQuery selects what the user owns or was shared, by id or by email
func listQuery(f repository.ListFilter) bson.M {
	or := bson.A{
		bson.M{"owner": f.UserID},
		bson.M{"sharedWith.userId": f.UserID},
	}
	if f.Email != "" {
		or = append(or, bson.M{"sharedWith.email": strings.ToLower(f.Email)})
	}
	query := bson.M{"$or": or}
	if f.Search != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}
	return query
}

// Find returns one page, most recently updated first
func (r *MongoCollectionRepository) Find(ctx context.Context, f repository.ListFilter) ([]*model.Collection, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(f.Skip)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cursor, err := r.collections.Find(ctx, listQuery(f), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*model.Collection, 0)
	for cursor.Next(ctx) {
		var c model.Collection
		if err := cursor.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cursor.Err()
}

func (r *MongoCollectionRepository) Count(ctx context.Context, f repository.ListFilter) (int64, error) {
	return r.collections.CountDocuments(ctx, listQuery(f))
}

// Create inserts c and sets its id
func (r *MongoCollectionRepository) Create(ctx context.Context, c *model.Collection) error {
	if c == nil {
		return errors.New("collection cannot be nil")
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Entries == nil {
		c.Entries = []model.Entry{}
	}
	if c.SharedWith == nil {
		c.SharedWith = []model.Share{}
	}
	_, err := r.collections.InsertOne(ctx, c)
	return err
}

// Save replaces the whole document
func (r *MongoCollectionRepository) Save(ctx context.Context, c *model.Collection) error {
	res, err := r.collections.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return sharedErrors.ErrCollectionNotFound
	}
	return nil
}

func (r *MongoCollectionRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.collections.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return sharedErrors.ErrCollectionNotFound
	}
	return nil
}

// LinkShares fills in userId on shares addressed to email that have none
func (r *MongoCollectionRepository) LinkShares(ctx context.Context, email, userID string) (int64, error) {
	email = strings.ToLower(email)
	unlinked := bson.M{"email": email, "userId": bson.M{"$in": bson.A{nil, ""}}}

	res, err := r.collections.UpdateMany(ctx,
		bson.M{"sharedWith": bson.M{"$elemMatch": unlinked}},
		bson.M{"$set": bson.M{"sharedWith.$[s].userId": userID}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"s.email": email, "s.userId": bson.M{"$in": bson.A{nil, ""}}}},
		}),
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

var _ repository.CollectionRepository = (*MongoCollectionRepository)(nil)
