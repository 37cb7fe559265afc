// Package di contains dependency injection tokens for the trading context.
package di

import (
	"github.com/fd1az/pool-sniper/business/trading/app"
	"github.com/fd1az/pool-sniper/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Gate   = di.NewToken[*app.CooldownGate]("trading.Gate")
	Trader = di.NewToken[*app.Trader]("trading.Trader")
)

// Private dependency tokens - internal to trading module
var (
	Executor        = di.NewToken[app.Executor]("trading:executor")
	BalanceProvider = di.NewToken[app.BalanceProvider]("trading:balanceProvider")
)

func GetGate(c di.ServiceRegistry) *app.CooldownGate {
	return di.GetToken(c, Gate)
}

func GetTrader(c di.ServiceRegistry) *app.Trader {
	return di.GetToken(c, Trader)
}

func GetExecutor(c di.ServiceRegistry) app.Executor {
	return di.GetToken(c, Executor)
}

func GetBalanceProvider(c di.ServiceRegistry) app.BalanceProvider {
	return di.GetToken(c, BalanceProvider)
}
