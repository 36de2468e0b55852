package domain

// TokenPair is the access/refresh pair returned by verify, login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
