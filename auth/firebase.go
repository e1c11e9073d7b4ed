package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	fbauth "firebase.google.com/go/auth"
	"google.golang.org/api/option"

	"github.com/ronwsv/menuly-delivery/apperr"
)

var (
	ErrInvalidIDToken = apperr.Unauthorized("Invalid or revoked ID token")
	ErrEmailMissing   = apperr.Unauthorized("Email not found in token")
)

// Identity is what the identity provider vouches for after verifying an ID token.
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

// FirebaseVerifier checks Firebase ID tokens, revocation included.
type FirebaseVerifier struct {
	client    *fbauth.Client
	projectID string
}

// NewFirebaseVerifier initializes the Firebase app from the service account JSON itself, not a file.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsJSON string) (*FirebaseVerifier, error) {
	if projectID == "" || credentialsJSON == "" {
		return nil, fmt.Errorf("firebase: project id and credentials are required")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON([]byte(credentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: auth client: %w", err)
	}
	return &FirebaseVerifier{client: client, projectID: projectID}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (Identity, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return Identity{}, apperr.Wrap(ErrInvalidIDToken, err)
	}
	if token.Audience != v.projectID {
		return Identity{}, apperr.Wrap(ErrInvalidIDToken, fmt.Errorf("audience %q", token.Audience))
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return Identity{}, ErrEmailMissing
	}
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)
	return Identity{UID: token.UID, Email: email, Name: name, Picture: picture}, nil
}
