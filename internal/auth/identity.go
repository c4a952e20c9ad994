package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/microearn/backend/internal/models"
)

// Identity is a verified external sign-in.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// IdentityProvider verifies an ID token issued by the external sign-in
// service.
type IdentityProvider interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

// tokenVerifier is the slice of the Firebase auth client we use.
type tokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseProvider verifies Firebase ID tokens with the Admin SDK. Revoked
// tokens and disabled users are refused.
type FirebaseProvider struct {
	verifier tokenVerifier
}

// NewFirebaseProvider builds an Admin SDK client for projectID. An empty
// credentialsFile falls back to application default credentials.
func NewFirebaseProvider(ctx context.Context, projectID, credentialsFile string) (*FirebaseProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return newFirebaseProvider(client), nil
}

func newFirebaseProvider(v tokenVerifier) *FirebaseProvider {
	return &FirebaseProvider{verifier: v}
}

var _ IdentityProvider = (*FirebaseProvider)(nil)

func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	tok, err := p.verifier.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	switch {
	case err == nil:
	case fbauth.IsIDTokenInvalid(err), fbauth.IsIDTokenExpired(err), fbauth.IsIDTokenRevoked(err),
		fbauth.IsUserDisabled(err), fbauth.IsUserNotFound(err):
		return nil, models.ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("%w: verify id token: %v", models.ErrExternalVerificationFailed, err)
	}

	email := claim(tok, "email")
	if email == "" {
		return nil, models.ErrInvalidCredentials
	}
	return &Identity{
		UID:         tok.UID,
		Email:       email,
		DisplayName: claim(tok, "name"),
		PhotoURL:    claim(tok, "picture"),
	}, nil
}

func claim(tok *fbauth.Token, key string) string {
	s, _ := tok.Claims[key].(string)
	return s
}
