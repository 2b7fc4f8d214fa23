package notifier

import (
	"context"

	"github.com/gfranco/carteira/internal/core"
)

// Notifier defines the interface for report delivery channels.
type Notifier interface {
	// Name returns the unique identifier for this channel
	Name() string

	// Deliver pushes one rendered report to the channel
	Deliver(ctx context.Context, d core.Delivery) error
}
