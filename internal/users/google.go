package users

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/floragems/floragems-backend/pkg/config"
)

// GoogleIdentity is the subset of a verified ID token the service needs.
type GoogleIdentity struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

// GoogleVerifier validates a Google ID token and extracts the identity.
type GoogleVerifier interface {
	Verify(ctx context.Context, rawToken string) (*GoogleIdentity, error)
}

type googleVerifier struct {
	clientID string
}

// NewGoogleVerifier builds a verifier pinned to the configured OAuth client.
// Returns nil when no client ID is configured; the service then rejects
// Google logins with a dependency error.
func NewGoogleVerifier(cfg config.GoogleConfig) GoogleVerifier {
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil
	}
	return &googleVerifier{clientID: clientID}
}

func (v *googleVerifier) Verify(ctx context.Context, rawToken string) (*GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate google id token: %w", err)
	}

	identity := &GoogleIdentity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		identity.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		identity.AvatarURL = picture
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("google id token carries no email claim")
	}
	return identity, nil
}
