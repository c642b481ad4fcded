package core

import "time"

const (
	EventCreated EventAction = "created"
	EventUpdated EventAction = "updated"
	EventDeleted EventAction = "deleted"
)

type (
	EventAction string

	// TransactionEvent records a committed change to a transaction so it
	// can be mirrored to the journal.
	TransactionEvent struct {
		ID            string
		Action        EventAction
		TransactionID string
		UserID        string
		OccurredAt    time.Time
		Attempts      int
	}
)

func (a EventAction) Valid() bool {
	return a == EventCreated || a == EventUpdated || a == EventDeleted
}
