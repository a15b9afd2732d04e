package services

import (
	"context"

	"yamdb/internal/models"
)

type tokenMinter interface {
	Issue(id VerifiedIdentity) (*AccessToken, error)
}

// AuthService runs the signup and token endpoints on top of the registrar,
// the verifier and the issuer.
type AuthService struct {
	registrar *Registrar
	verifier  *Verifier
	issuer    tokenMinter
}

func NewAuthService(registrar *Registrar, verifier *Verifier, issuer tokenMinter) *AuthService {
	return &AuthService{registrar: registrar, verifier: verifier, issuer: issuer}
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.SignupResponse, error) {
	res, err := s.registrar.Register(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	return &models.SignupResponse{Username: res.Username, Email: res.Email}, nil
}

// ObtainToken mints a token only after the code has been accepted.
func (s *AuthService) ObtainToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error) {
	id, err := s.verifier.Verify(ctx, req.Username, req.ConfirmationCode)
	if err != nil {
		return nil, err
	}
	tok, err := s.issuer.Issue(id)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{Token: tok.Token, ExpiresAt: tok.ExpiresAt}, nil
}
