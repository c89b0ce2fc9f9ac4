package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeUnorderedPoints      ErrorCode = 102
	ErrCodeDuplicateTimeKey     ErrorCode = 103

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeMalformedPayload      ErrorCode = 203

	// Chart engine errors (300-399)
	ErrCodeEngineDisposed ErrorCode = 300
	ErrCodeSeriesNotFound ErrorCode = 301
	ErrCodeEngineCreate   ErrorCode = 303
	ErrCodeWidgetDisposed ErrorCode = 304

	// Persistence errors (400-499)
	ErrCodeStoreUnavailable ErrorCode = 400
	ErrCodeStoreReadFailed  ErrorCode = 401
	ErrCodeStoreWriteFailed ErrorCode = 402

	// Export errors (500-599)
	ErrCodeExportFailed ErrorCode = 500
)
