package models

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,max=1024"`
}

// LoginResponse is returned on a successful password login
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	Provider    Provider `json:"provider"`
	Email       string   `json:"email"`
}

// AuthStatus describes which authentication modes are active
type AuthStatus struct {
	AuthEnabled         bool   `json:"auth_enabled"`
	PasswordAuthEnabled bool   `json:"password_auth_enabled"`
	GoogleAuthEnabled   bool   `json:"google_auth_enabled"`
	Message             string `json:"message"`
}

// MeResponse describes the caller of GET /auth/me
type MeResponse struct {
	Authenticated bool     `json:"authenticated"`
	Email         string   `json:"email,omitempty"`
	Provider      Provider `json:"provider,omitempty"`
}
