// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/fd1az/pool-sniper/business/chain/app"
	"github.com/fd1az/pool-sniper/internal/di"
)

// Public service tokens - exposed to other modules
var (
	EventSource = di.NewToken[app.EventSource]("chain.EventSource")
)

func GetEventSource(c di.ServiceRegistry) app.EventSource {
	return di.GetToken(c, EventSource)
}
