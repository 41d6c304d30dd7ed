package types

// Session pairs a bearer token with the user it was issued to.
// A zero Session means no one is logged in.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Valid reports whether both halves of the session are present.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.ID != ""
}

// LoginResult is returned by a login attempt. Either Session is valid, or
// TwoFactorRequired is set and Message carries the server's prompt.
type LoginResult struct {
	Session           Session
	TwoFactorRequired bool
	Message           string
}
