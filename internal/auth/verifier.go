// Package auth проверяет bearer-токены клиентов как OIDC ID-токены.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims то, что нужно знать о вызывающем
type Claims struct {
	Subject string
	Email   string
}

// Verifier проверяет подпись, издателя, аудиторию и срок токена
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier получает discovery-документ издателя и ключи подписи
func NewVerifier(ctx context.Context, issuerURL, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	return &Verifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// newStaticVerifier проверяет токены фиксированным набором ключей без discovery
func newStaticVerifier(issuerURL, clientID string, keys oidc.KeySet) *Verifier {
	return &Verifier{
		verifier: oidc.NewVerifier(issuerURL, keys, &oidc.Config{ClientID: clientID}),
	}
}

// Verify проверяет сырой токен и возвращает его claims
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	if rawToken == "" {
		return nil, ErrMissingToken
	}

	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var extra struct {
		Email string `json:"email"`
	}
	// email необязателен
	_ = idToken.Claims(&extra)

	return &Claims{
		Subject: idToken.Subject,
		Email:   extra.Email,
	}, nil
}

// BearerToken достаёт токен из заголовка Authorization
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
