// Package audit records committed economy events to an append-only journal.
// The relational store stays the source of truth; the journal is written
// after commit and a failed write never fails the request.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Kind names an economy event.
type Kind string

const (
	KindPurchase         Kind = "purchase"
	KindFactionCreated   Kind = "faction_created"
	KindFactionJoined    Kind = "faction_joined"
	KindFactionDissolved Kind = "faction_dissolved"
)

// Event is one journal entry. Amount is the number of credits debited.
type Event struct {
	Kind      Kind      `bson:"kind"                 json:"kind"`
	UserID    int64     `bson:"user_id"              json:"user_id"`
	ItemID    *int64    `bson:"item_id,omitempty"    json:"item_id,omitempty"`
	FactionID *int64    `bson:"faction_id,omitempty" json:"faction_id,omitempty"`
	Amount    int       `bson:"amount"               json:"amount"`
	Balance   int       `bson:"balance"              json:"balance"`
	Members   int       `bson:"members,omitempty"    json:"members,omitempty"`
	At        time.Time `bson:"at"                   json:"at"`
}

// Recorder persists events.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

// Memory keeps events in process. Tests use it to assert on the journal.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Record(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// Events returns a copy of the recorded events in order.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Journal writes events through a Recorder and logs failures.
type Journal struct {
	rec Recorder
	log logrus.FieldLogger
}

// NewJournal wraps rec. A nil rec discards events.
func NewJournal(rec Recorder, log logrus.FieldLogger) *Journal {
	if rec == nil {
		rec = Nop{}
	}
	return &Journal{rec: rec, log: log}
}

// Record appends e. Failures are logged at warn level and swallowed.
func (j *Journal) Record(ctx context.Context, e Event) {
	if err := j.rec.Record(ctx, e); err != nil {
		j.log.WithError(err).WithFields(logrus.Fields{
			"kind":    e.Kind,
			"user_id": e.UserID,
		}).Warn("journal write failed")
	}
}
