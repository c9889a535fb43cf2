package constants

const (
	// HTTP Headers
	HeaderAccept      = "Accept"
	HeaderContentType = "Content-Type"
	HeaderUserAgent   = "User-Agent"
	HeaderXRequestID  = "X-Request-ID"

	// Content Types
	ContentTypeJSON = "application/json"

	// Client defaults
	DefaultUserAgent = "kanban-cli"
	DefaultBaseURL   = "http://localhost:8080/api/"
)
