package domain

// SessionPayload is the claim set carried by access and refresh tokens.
// SessionID pairs an access token with the refresh token issued alongside it.
type SessionPayload struct {
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id"`
	IsPrivileged bool   `json:"is_privileged"`
}
