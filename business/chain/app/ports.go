// Package app contains the port definitions for the chain context.
package app

import (
	"context"

	"github.com/fd1az/pool-sniper/business/chain/domain"
	"github.com/fd1az/pool-sniper/internal/wsconn"
)

// EventSource streams detected pool-creation events.
type EventSource interface {
	// Events starts the source. The channel is closed when ctx is done or Close is called.
	Events(ctx context.Context) (<-chan domain.Opportunity, error)

	// State returns the transport connection state.
	State() wsconn.State

	Close() error
}
