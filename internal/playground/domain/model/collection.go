package model

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldType is the closed set of column types a collection can declare.
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeDate   FieldType = "date"
	FieldTypeRating FieldType = "rating"
	FieldTypeTime   FieldType = "time"
)

// FieldTypes lists every supported type in declaration order.
var FieldTypes = []FieldType{FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeRating, FieldTypeTime}

// Valid reports whether t is one of the supported types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeRating, FieldTypeTime:
		return true
	default:
		return false
	}
}

// Field is a named, typed column.
type Field struct {
	Name string    `json:"name" bson:"name"`
	Type FieldType `json:"type" bson:"type"`
}

// Entry is one row, keyed by field name.
type Entry map[string]interface{}

// Share grants a non-owner access to a collection. Email is stored
// lowercase and is the key of the share list.
type Share struct {
	Email       string      `json:"email" bson:"email"`
	UserID      string      `json:"userId,omitempty" bson:"userId,omitempty"`
	AccessLevel AccessLevel `json:"accessLevel" bson:"accessLevel"`
	SharedAt    time.Time   `json:"sharedAt" bson:"sharedAt"`
}

// Collection is a user-defined table: a schema, its rows and its share list.
type Collection struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Owner      string             `json:"owner" bson:"owner"`
	Fields     []Field            `json:"fields" bson:"fields"`
	Entries    []Entry            `json:"entries" bson:"entries"`
	SharedWith []Share            `json:"sharedWith" bson:"sharedWith"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// IDHex returns the hex form of the collection id
func (c *Collection) IDHex() string {
	return c.ID.Hex()
}

// IsOwner reports whether userID owns the collection
func (c *Collection) IsOwner(userID string) bool {
	return userID != "" && c.Owner == userID
}

// FindShare returns the index of the share matching the user id or, failing
// that, the email (case-insensitive). -1 when nothing matches.
func (c *Collection) FindShare(userID, email string) int {
	for i, s := range c.SharedWith {
		if userID != "" && s.UserID == userID {
			return i
		}
		if email != "" && strings.EqualFold(s.Email, email) {
			return i
		}
	}
	return -1
}

// ShareIndexByEmail returns the index of the share keyed by email, or -1
func (c *Collection) ShareIndexByEmail(email string) int {
	for i, s := range c.SharedWith {
		if strings.EqualFold(s.Email, email) {
			return i
		}
	}
	return -1
}

// UpsertShare adds a share or replaces the tier of the existing one for the
// same email. Returns true when a new share was appended.
func (c *Collection) UpsertShare(share Share) bool {
	share.Email = strings.ToLower(strings.TrimSpace(share.Email))
	if i := c.ShareIndexByEmail(share.Email); i >= 0 {
		c.SharedWith[i].AccessLevel = share.AccessLevel
		c.SharedWith[i].SharedAt = share.SharedAt
		if share.UserID != "" {
			c.SharedWith[i].UserID = share.UserID
		}
		return false
	}
	c.SharedWith = append(c.SharedWith, share)
	return true
}

// RemoveShare drops the share for email. Returns false if none existed.
func (c *Collection) RemoveShare(email string) bool {
	i := c.ShareIndexByEmail(email)
	if i < 0 {
		return false
	}
	c.SharedWith = append(c.SharedWith[:i], c.SharedWith[i+1:]...)
	return true
}

// ValidIndex reports whether i addresses an existing entry
func (c *Collection) ValidIndex(i int) bool {
	return i >= 0 && i < len(c.Entries)
}

// AppendEntry adds e at the end and returns its index
func (c *Collection) AppendEntry(e Entry) int {
	c.Entries = append(c.Entries, e)
	return len(c.Entries) - 1
}

// ReplaceEntry overwrites the entry at i
func (c *Collection) ReplaceEntry(i int, e Entry) error {
	if !c.ValidIndex(i) {
		return fmt.Errorf("entry index %d out of range [0,%d)", i, len(c.Entries))
	}
	c.Entries[i] = e
	return nil
}

// RemoveEntry deletes the entry at i, shifting later entries down
func (c *Collection) RemoveEntry(i int) (Entry, error) {
	if !c.ValidIndex(i) {
		return nil, fmt.Errorf("entry index %d out of range [0,%d)", i, len(c.Entries))
	}
	removed := c.Entries[i]
	c.Entries = append(c.Entries[:i], c.Entries[i+1:]...)
	return removed, nil
}

// Touch bumps UpdatedAt
func (c *Collection) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}
