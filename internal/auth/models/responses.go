package models

// PublicUser is the identity view returned on login.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SignupResult is the response payload for POST /signup.
type SignupResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginResult is the response payload for POST /login.
type LoginResult struct {
	Success bool       `json:"success"`
	Token   string     `json:"token"`
	User    PublicUser `json:"user"`
}
