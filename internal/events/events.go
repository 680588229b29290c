// Package events publishes record changes to an event bus so other systems
// can react to new reports without polling the store.
package events

import (
	"context"

	"github.com/alfredjeanlab/warroom/internal/model"
)

// Topic returns the subject for an action on a category, for example
// "warroom.records.mobHits.created".
func Topic(c model.Category, action string) string {
	return "warroom.records." + string(c) + "." + action
}

// Actions.
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// AllRecords matches every record topic.
const AllRecords = "warroom.records.>"

// RecordCreated is published after a record is stored.
type RecordCreated struct {
	Category model.Category `json:"category"`
	Record   model.Record   `json:"record"`
}

// RecordDeleted is published after a delete request succeeds. The record may
// not have existed.
type RecordDeleted struct {
	Category model.Category `json:"category"`
	ID       string         `json:"id"`
}

// Publisher publishes events to an event bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
