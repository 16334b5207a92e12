package models

// GoogleClaims represents the claims extracted from a verified Google ID token
type GoogleClaims struct {
	Sub           string `json:"sub"`            // Subject (Google account ID)
	Email         string `json:"email"`          // Account email, may be empty
	EmailVerified bool   `json:"email_verified"` // Whether Google verified the email
	Name          string `json:"name"`
	Exp           int64  `json:"exp"`
	Iat           int64  `json:"iat"`
	Iss           string `json:"iss"`
	Aud           string `json:"aud"`
}
