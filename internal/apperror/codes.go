package apperror

// Code identifies a failure class. Callers branch on codes, never on messages.
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Pipeline error codes
const (
	// Solana RPC
	CodeSolanaConnectionFailed Code = "SOLANA_CONNECTION_FAILED"
	CodeSolanaSubscribeFailed  Code = "SOLANA_SUBSCRIBE_FAILED"
	CodeSolanaRPCError         Code = "SOLANA_RPC_ERROR"
	CodeAccountNotFound        Code = "ACCOUNT_NOT_FOUND"
	CodeTransactionNotFound    Code = "TRANSACTION_NOT_FOUND"

	// WebSocket
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Opportunity intake
	CodeInvalidOpportunity Code = "INVALID_OPPORTUNITY"

	// Risk scoring
	CodeLookupFailed      Code = "LOOKUP_FAILED"
	CodeLookupTimeout     Code = "LOOKUP_TIMEOUT"
	CodeMarketDataFailed  Code = "MARKET_DATA_FAILED"
	CodeMarketDataMissing Code = "MARKET_DATA_NOT_FOUND"

	// Trading
	CodeExecutionFailed     Code = "EXECUTION_FAILED"
	CodeExecutionTimeout    Code = "EXECUTION_TIMEOUT"
	CodeInvalidTradeSize    Code = "INVALID_TRADE_SIZE"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodePriceImpactExceeded Code = "PRICE_IMPACT_EXCEEDED"

	// Notification
	CodeNotificationFailed  Code = "NOTIFICATION_FAILED"
	CodeNotificationTimeout Code = "NOTIFICATION_TIMEOUT"

	// Circuit breaker
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
