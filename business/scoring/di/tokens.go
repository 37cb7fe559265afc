// Package di contains dependency injection tokens for the scoring context.
package di

import (
	"github.com/fd1az/pool-sniper/business/scoring/app"
	"github.com/fd1az/pool-sniper/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scorer = di.NewToken[*app.Scorer]("scoring.Scorer")
)

// Private dependency tokens - internal to scoring module
var (
	MarketLookup = di.NewToken[app.MarketLookup]("scoring:marketLookup")
)

func GetScorer(c di.ServiceRegistry) *app.Scorer {
	return di.GetToken(c, Scorer)
}

func GetMarketLookup(c di.ServiceRegistry) app.MarketLookup {
	return di.GetToken(c, MarketLookup)
}
