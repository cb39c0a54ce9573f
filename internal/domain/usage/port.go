package usage

import "context"

// Repository port for the usage journal
type Repository interface {
	Save(ctx context.Context, e *Event) error
	Recent(ctx context.Context, limit int) ([]*Event, error)
}
