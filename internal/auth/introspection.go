package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrVerifierUnavailable is returned when the identity endpoint cannot be
// reached or answers with a server error.
var ErrVerifierUnavailable = errors.New("identity verifier unavailable")

// IntrospectionVerifier resolves tokens by calling the auth provider's user
// endpoint with the caller's bearer token.
type IntrospectionVerifier struct {
	url    string
	apiKey string
	client HTTPClient
}

// NewIntrospectionVerifier returns a verifier calling url. apiKey, when set,
// is sent as the "apikey" header.
func NewIntrospectionVerifier(url, apiKey string, client HTTPClient) *IntrospectionVerifier {
	return &IntrospectionVerifier{url: url, apiKey: apiKey, client: client}
}

type introspectionUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
}

// Verify implements Verifier.
func (v *IntrospectionVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"Accept":        "application/json",
	}
	if v.apiKey != "" {
		headers["apikey"] = v.apiKey
	}

	resp, err := v.client.Do(ctx, &HTTPRequest{Method: http.MethodGet, URL: v.url, Headers: headers})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrTokenInvalid
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrVerifierUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrTokenInvalid, resp.StatusCode)
	}

	var u introspectionUser
	if err := json.Unmarshal(resp.Body, &u); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", ErrTokenInvalid, err)
	}
	if u.Email == "" {
		return nil, fmt.Errorf("%w: user has no email", ErrTokenInvalid)
	}

	role := u.AppMetadata.Role
	if role == "" {
		role = u.Role
	}
	return &Identity{UserID: u.ID, Email: u.Email, Role: role}, nil
}
