package service

import (
	"context"
	"fmt"
	"strings"

	"stockroom/internal/auth"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// authService implements AuthService.
type authService struct {
	identityRepo repository.IdentityRepository
	profileRepo  repository.ProfileRepository
	issuer       *auth.TokenIssuer
	logger       zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	identityRepo repository.IdentityRepository,
	profileRepo repository.ProfileRepository,
	issuer *auth.TokenIssuer,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		identityRepo: identityRepo,
		profileRepo:  profileRepo,
		issuer:       issuer,
		logger:       logger.With().Str("service", "auth").Logger(),
	}
}

// Login checks the password and issues a token.
func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, model.ErrInvalidCredentials
	}

	identity, err := s.identityRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if identity == nil {
		s.logger.Debug().Str("email", email).Msg("login for unknown email")
		return nil, model.ErrInvalidCredentials
	}

	if err := auth.CheckPassword(identity.PasswordHash, req.Password); err != nil {
		s.logger.Warn().Str("user_id", identity.ID.String()).Msg("login failed")
		return nil, err
	}

	s.logger.Info().Str("user_id", identity.ID.String()).Msg("user signed in")
	return s.issuer.Issue(identity.ID)
}

// Accept consumes a one-time token, stores the new password, confirms the
// identity and signs the user in. A token can be redeemed only once.
func (s *authService) Accept(ctx context.Context, req *model.AcceptRequest) (*model.TokenResponse, error) {
	if strings.TrimSpace(req.Token) == "" {
		return nil, model.ErrInvalidToken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var token *model.AuthToken
	err = withTx(ctx, s.identityRepo, s.logger, func(tx pgx.Tx) error {
		var err error
		token, err = s.identityRepo.ConsumeToken(ctx, tx, auth.HashToken(req.Token))
		if err != nil {
			return err
		}
		if token == nil {
			return model.ErrInvalidToken
		}
		return s.identityRepo.SetPassword(ctx, tx, token.UserID, hash, true)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", token.UserID.String()).
		Str("kind", string(token.Kind)).
		Msg("auth link accepted")

	return s.issuer.Issue(token.UserID)
}

// Authenticate verifies a bearer token and loads the caller's role. A user
// without a profile row is treated as STAFF.
func (s *authService) Authenticate(ctx context.Context, token string) (model.Actor, error) {
	userID, err := s.issuer.Verify(token)
	if err != nil {
		return model.Actor{}, err
	}

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return model.Actor{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile != nil {
		return model.Actor{ID: userID, Role: profile.Role}, nil
	}

	identity, err := s.identityRepo.GetByID(ctx, userID)
	if err != nil {
		return model.Actor{}, fmt.Errorf("failed to load user: %w", err)
	}
	if identity == nil {
		return model.Actor{}, model.ErrUnauthenticated
	}
	return model.Actor{ID: userID, Role: model.RoleStaff}, nil
}
