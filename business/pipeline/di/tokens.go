// Package di contains dependency injection tokens for the pipeline context.
package di

import (
	"github.com/fd1az/pool-sniper/business/pipeline/app"
	"github.com/fd1az/pool-sniper/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Pipeline = di.NewToken[*app.Pipeline]("pipeline.Pipeline")
)

// Private dependency tokens - internal to pipeline module
var (
	Reporter     = di.NewToken[app.Reporter]("pipeline:reporter")
	Deduplicator = di.NewToken[*app.Deduplicator]("pipeline:deduplicator")
)

func GetPipeline(c di.ServiceRegistry) *app.Pipeline {
	return di.GetToken(c, Pipeline)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetDeduplicator(c di.ServiceRegistry) *app.Deduplicator {
	return di.GetToken(c, Deduplicator)
}
