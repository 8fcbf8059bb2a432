package audit

import "context"

// Repository is append-and-query only. The absence of update/delete methods
// is a guarantee, not an omission.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	History(ctx context.Context, resourceType, resourceID string, limit, offset int) ([]*Entry, int, error)
	HistoryForUser(ctx context.Context, userID string, limit, offset int) ([]*Entry, int, error)
}
