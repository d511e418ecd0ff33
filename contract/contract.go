//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/google/uuid"

	"team-chat/domain"
	"team-chat/domain/event"
)

// MessageStore is the persistence port for messages. Implementations
// distinguish transient failures (errors.Transient) from permanent
// ones; the delivered flag is durable and monotonic.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg domain.Message) (uuid.UUID, error)
	MarkDelivered(ctx context.Context, group domain.GroupKey, msgID uuid.UUID) error
	// MarkDeliveredTo records per-recipient delivery for pair groups.
	MarkDeliveredTo(ctx context.Context, group domain.GroupKey, msgID uuid.UUID, user domain.UserID) error
	// FindUndelivered returns pending messages in ascending creation order.
	FindUndelivered(ctx context.Context, group domain.GroupKey) ([]domain.Message, error)
	// FindUndeliveredFor filters pending messages to the ones the given
	// recipient has not seen yet (pair groups only).
	FindUndeliveredFor(ctx context.Context, group domain.GroupKey, user domain.UserID) ([]domain.Message, error)
	// History pages backwards through a group's messages; cursor is the
	// opaque key returned by the previous call.
	History(ctx context.Context, group domain.GroupKey, cursor *string) ([]domain.Message, *string, error)
}

// Directory is the persistence port for group membership and the
// durable user record. Membership is resolved on every send, never
// cached across calls.
type Directory interface {
	FindGroupMembers(ctx context.Context, group domain.GroupKey) ([]domain.UserID, error)
	// GroupsFor lists every group (teams and conversations) a user
	// belongs to; used for backlog replay on reconnect.
	GroupsFor(ctx context.Context, user domain.UserID) ([]domain.GroupKey, error)
	SetUserOnline(ctx context.Context, user domain.UserID, online bool) error
}

// Transport delivers one payload to one connection. A closed socket
// is an ordinary outcome reported as false, never an error.
type Transport interface {
	Deliver(conn domain.ConnID, payload []byte) bool
}

// IPresence tracks which users are reachable and through which
// connections. Safe for concurrent use; all operations O(1) amortized.
type IPresence interface {
	// Register reports whether this was the user's first live
	// connection; Unregister whether it was the last. Both are decided
	// atomically so first/last transitions cannot be misattributed
	// under concurrent connects and disconnects of the same user.
	Register(conn domain.ConnID, user domain.UserID) (first bool)
	Unregister(conn domain.ConnID) (user domain.UserID, last, ok bool)
	IsPresent(user domain.UserID) bool
	ConnectionsFor(user domain.UserID) []domain.ConnID
}

// ITracker owns the in-memory delivered bookkeeping per message.
type ITracker interface {
	RecordAttempt(ctx context.Context, group domain.GroupKey, msgID uuid.UUID, recipient domain.UserID, ok bool)
	Delivered(msgID uuid.UUID) bool
	PendingFor(ctx context.Context, group domain.GroupKey) ([]domain.Message, error)
	Clear(msgID uuid.UUID)
}

// EventSink consumes domain events emitted by the fan-out pipeline.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
