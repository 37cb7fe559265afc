package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",

	CodeConfigurationError: "Configuration error",

	CodeRateLimitExceeded: "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeSolanaConnectionFailed: "Failed to connect to Solana node",
	CodeSolanaSubscribeFailed:  "Failed to subscribe to program logs",
	CodeSolanaRPCError:         "Solana RPC call failed",
	CodeAccountNotFound:        "Account not found",
	CodeTransactionNotFound:    "Transaction not found",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeInvalidOpportunity: "Invalid pool opportunity",

	CodeLookupFailed:      "Risk lookup failed",
	CodeLookupTimeout:     "Risk lookup timed out",
	CodeMarketDataFailed:  "Failed to fetch market data",
	CodeMarketDataMissing: "No market data for token",

	CodeExecutionFailed:     "Trade execution failed",
	CodeExecutionTimeout:    "Trade execution timed out",
	CodeInvalidTradeSize:    "Invalid trade size",
	CodeInsufficientBalance: "Insufficient wallet balance",
	CodePriceImpactExceeded: "Price impact exceeds slippage tolerance",

	CodeNotificationFailed:  "Failed to publish notification",
	CodeNotificationTimeout: "Notification publish timed out",

	CodeCircuitOpen: "Circuit breaker is open",
}
