// Package di contains dependency injection tokens for the notify context.
package di

import (
	"github.com/fd1az/pool-sniper/business/notify/app"
	"github.com/fd1az/pool-sniper/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Limiter = di.NewToken[*app.Limiter]("notify.Limiter")
)

// Private dependency tokens - internal to notify module
var (
	Publisher = di.NewToken[app.Publisher]("notify:publisher")
)

func GetLimiter(c di.ServiceRegistry) *app.Limiter {
	return di.GetToken(c, Limiter)
}

func GetPublisher(c di.ServiceRegistry) app.Publisher {
	return di.GetToken(c, Publisher)
}
