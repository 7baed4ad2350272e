package auth

// BearerResponse is the carrier envelope returned for an issued token.
type BearerResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// BearerTransport wraps tokens into bearer responses.
type BearerTransport struct {
	tokenType string
}

// NewBearerTransport builds the transport.
func NewBearerTransport() *BearerTransport {
	return &BearerTransport{tokenType: "bearer"}
}

// LoginResponse produces the response envelope for a freshly issued token.
func (t *BearerTransport) LoginResponse(token string) BearerResponse {
	return BearerResponse{AccessToken: token, TokenType: t.tokenType}
}
