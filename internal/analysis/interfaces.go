package analysis

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the storage operations the service needs
type RepositoryInterface interface {
	CreateRecord(ctx context.Context, record *Record) error
	ListRecords(ctx context.Context, limit, offset int) ([]*Record, error)
	ListAllRecords(ctx context.Context) ([]*Record, error)
	CountRecords(ctx context.Context) (int64, error)
	CountScamRecords(ctx context.Context) (int64, error)
	DeleteRecord(ctx context.Context, id uuid.UUID) error
}

// UserCounter exposes the account total for the admin stats view
type UserCounter interface {
	CountUsers(ctx context.Context) (int64, error)
}

// Broadcaster relays analysis events to connected observers
type Broadcaster interface {
	SendToClient(clientID, msgType string, data interface{}) bool
	BroadcastToAdmins(msgType string, data interface{})
	LiveUserCount() int
}
