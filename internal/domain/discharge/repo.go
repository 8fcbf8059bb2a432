package discharge

import (
	"context"

	"github.com/google/uuid"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

// Repository is the persistence contract for discharge requests and the
// workflow notifications they emit.
type Repository interface {
	CreateRequest(ctx context.Context, req *Request) error
	GetRequest(ctx context.Context, id uuid.UUID) (*Request, error)
	UpdateRequest(ctx context.Context, req *Request) error
	HasOpenRequest(ctx context.Context, patientID uuid.UUID) (bool, error)
	ListRequests(ctx context.Context, status string, pg pagination.Params) ([]*Request, int, error)

	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, pg pagination.Params) ([]*Notification, int, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
}
