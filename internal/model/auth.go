package model

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type SessionStatus struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
}
