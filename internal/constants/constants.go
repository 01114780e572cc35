package constants

const (
	// ContextKeyUserID is the session and gin context key holding the authenticated user ID.
	ContextKeyUserID = "user_id"

	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "oppuss_session"

	MinPasswordLength = 8

	MaxAIGeneratedTasks = 20

	// ExportVersion is written into every export document.
	// 1: rooms only, 2: adds houses, 3: adds shopping items.
	ExportVersion = 3
	// MinImportVersion is the oldest export document accepted on import.
	MinImportVersion = 2

	DefaultThumbnailSize = 500
	MaxThumbnailSize     = 2000
)
