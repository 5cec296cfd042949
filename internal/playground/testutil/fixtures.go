package testutil

import (
	"context"
	"strings"

	"data-playground/internal/playground/domain/client"
	"data-playground/internal/playground/domain/model"
)

// CollectionFixture builds collections for tests
type CollectionFixture struct{}

// NewCollectionFixture creates a new CollectionFixture
func NewCollectionFixture() *CollectionFixture {
	return &CollectionFixture{}
}

// Tasks returns the {Task:text, Priority:rating} collection owned by owner
func (f *CollectionFixture) Tasks(owner string) *model.Collection {
	return &model.Collection{
		Name:  "Tasks",
		Owner: owner,
		Fields: []model.Field{
			{Name: "Task", Type: model.FieldTypeText},
			{Name: "Priority", Type: model.FieldTypeRating},
		},
		Entries:    []model.Entry{},
		SharedWith: []model.Share{},
	}
}

// StaticDirectory is a UserDirectory over a fixed set of users
type StaticDirectory map[string]client.DirectoryUser

// NewStaticDirectory indexes users by lowercase email
func NewStaticDirectory(users ...client.DirectoryUser) StaticDirectory {
	d := StaticDirectory{}
	for _, u := range users {
		d[strings.ToLower(u.Email)] = u
	}
	return d
}

func (d StaticDirectory) FindByEmail(ctx context.Context, email string) (*client.DirectoryUser, error) {
	u, ok := d[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

var _ client.UserDirectory = StaticDirectory(nil)
