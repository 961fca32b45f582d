package api

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message
	Details string `json:"details,omitempty"` // Parser or storage detail, if available
}

// StatusResponse is the JSON body of a successful mutation.
type StatusResponse struct {
	Status string `json:"status"`
}

var statusOK = StatusResponse{Status: "ok"}
