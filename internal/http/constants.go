package http

const (
	KeyHeaderContentType       = "Content-Type"
	KeyHeaderRequestID         = "X-Request-Id"
	ValueHeaderApplicationJSON = "application/json"
)
