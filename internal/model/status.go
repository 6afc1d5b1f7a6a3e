package model

const StatusOK = "ok"

// StatusResponse is the business-level result carried by a 2xx response.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s StatusResponse) OK() bool { return s.Status == StatusOK }
