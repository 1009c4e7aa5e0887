package constants

const (
	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// HTTP Headers
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Context keys
	ContextKeyUserID    = "user_id"
	ContextKeyActor     = "actor"
	ContextKeyUserRoles = "user_roles"
	ContextKeyRequestID = "request_id"

	// Redis keys
	RedisKeyNonceLock      = "openpublisher:ledger:nonce"
	RedisKeyReconcilerLock = "openpublisher:ledger:reconciler"
	RedisChannelEvents     = "openpublisher:manuscript:events"

	ErrMsgInternalServerError = "Internal server error occurred"
)
