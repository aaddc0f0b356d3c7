package amqp

import (
	"encoding/json"
	"time"
)

// Mutation actions carried by change events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Collections that emit change events.
const (
	CollectionTransactions = "transactions"
	CollectionBudgets      = "budgets"
)

// ChangeEvent describes one successful mutation of a collection. It
// carries identifiers only; consumers that need the entity re-read it
// from the store.
type ChangeEvent struct {
	Collection string    `json:"collection"`
	Action     string    `json:"action"`
	EntityID   string    `json:"entityId"`
	UserID     string    `json:"userId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChangeEvent stamps an event with the current time.
func NewChangeEvent(collection, action, entityID, userID string) *ChangeEvent {
	return &ChangeEvent{
		Collection: collection,
		Action:     action,
		EntityID:   entityID,
		UserID:     userID,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON creates an event from JSON bytes.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
