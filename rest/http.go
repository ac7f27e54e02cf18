package rest

const (
	ContentTypeHalJson       = "application/hal+json"
	ContentTypeJson          = "application/json"
	ContentTypeMultipartForm = "multipart/form-data"

	HeaderAccept      = "Accept"
	HeaderContentType = "Content-Type"
	HeaderRequestId   = "X-Request-Id"
)
