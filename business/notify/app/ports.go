// Package app contains the notification limiter and the publisher port.
package app

import "context"

// Publisher posts one notification.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}
