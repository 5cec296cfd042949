package usecase

import (
	"time"

	"data-playground/internal/playground/domain/model"
)

// CreateCollectionRequest is the body of POST /collections
type CreateCollectionRequest struct {
	Name   string        `json:"name" validate:"required,max=100"`
	Fields []model.Field `json:"fields" validate:"required,min=1"`
}

// UpdateCollectionRequest changes the name, the schema or both. Entries
// written under an older schema are kept as they are.
type UpdateCollectionRequest struct {
	Name   *string       `json:"name,omitempty" validate:"omitempty,max=100"`
	Fields []model.Field `json:"fields,omitempty"`
}

// ShareRequest grants email a tier on a collection
type ShareRequest struct {
	Email       string            `json:"email" validate:"required,email,max=254"`
	AccessLevel model.AccessLevel `json:"accessLevel" validate:"required,oneof=read write admin"`
}

// ListRequest pages through the caller's collections
type ListRequest struct {
	Page   int
	Limit  int
	Search string
}

// CollectionSummary is one row of the collection listing
type CollectionSummary struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Owner       string        `json:"owner"`
	Fields      []model.Field `json:"fields"`
	EntryCount  int           `json:"entryCount"`
	AccessLevel string        `json:"accessLevel"`
	IsOwner     bool          `json:"isOwner"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Pagination describes the page returned by a listing
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// ListResult is the merged owned+shared listing
type ListResult struct {
	Collections []CollectionSummary `json:"collections"`
	Pagination  Pagination          `json:"pagination"`
}

// CollectionView is a collection as seen by one principal. SharedWith
// shadows the embedded share list and is nil, so left out of the JSON,
// below admin tier.
type CollectionView struct {
	*model.Collection
	SharedWith  *[]model.Share `json:"sharedWith,omitempty"`
	AccessLevel string         `json:"accessLevel"`
	IsOwner     bool           `json:"isOwner"`
}

// EntryResult is a stored entry and its position
type EntryResult struct {
	Index int         `json:"index"`
	Entry model.Entry `json:"entry"`
}

// OwnerAccessLevel is reported in listings for the caller's own collections
const OwnerAccessLevel = "owner"
