package domain

// Storage keys of the persisted credential pair.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// Credentials is the access/refresh token pair used to authorize requests.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// IsZero reports whether neither token is present.
func (c Credentials) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// HasAccessToken reports whether an access token is present.
func (c Credentials) HasAccessToken() bool {
	return c.AccessToken != ""
}
