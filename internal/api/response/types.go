package response

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Username string `json:"username"`
}

// Health is the health check response body.
type Health struct {
	Status string `json:"status"`
}
