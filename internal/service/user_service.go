package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Invitation outcomes reported to the caller.
const (
	InviteStatusUserExists = "user_exists"
	InviteMethodEmail      = "invite"
	InviteMethodSignupLink = "signup_link"
	ResetModeEmail         = "email"
	ResetModeManual        = "manual"
)

// LinkSettings controls one-time auth links.
type LinkSettings struct {
	SiteURL string
	TTL     time.Duration
}

// userService implements UserService.
type userService struct {
	profileRepo  repository.ProfileRepository
	identityRepo repository.IdentityRepository
	mailer       auth.Mailer
	links        LinkSettings
	now          func() time.Time
	logger       zerolog.Logger
}

// NewUserService creates a new user service. A nil mailer means links are
// handed back to the caller instead of being mailed.
func NewUserService(
	profileRepo repository.ProfileRepository,
	identityRepo repository.IdentityRepository,
	mailer auth.Mailer,
	links LinkSettings,
	logger zerolog.Logger,
) UserService {
	return &userService{
		profileRepo:  profileRepo,
		identityRepo: identityRepo,
		mailer:       mailer,
		links:        links,
		now:          time.Now,
		logger:       logger.With().Str("service", "user").Logger(),
	}
}

// Me describes the signed-in actor.
func (s *userService) Me(ctx context.Context, actor model.Actor) (*model.Me, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	identity, err := s.identityRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if identity == nil {
		return nil, model.ErrUnauthenticated
	}

	return &model.Me{
		ID:        actor.ID,
		Email:     identity.Email,
		Role:      actor.Role,
		CanManage: actor.Role.CanManage(),
	}, nil
}

// Profiles retrieves all profiles, newest first.
func (s *userService) Profiles(ctx context.Context) ([]model.Profile, error) {
	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list profiles")
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// UpdateRole changes a role while holding the OWNER rows, so two
// concurrent demotions cannot both pass the last-owner check.
func (s *userService) UpdateRole(ctx context.Context, actor model.Actor, id uuid.UUID, role model.Role) (*model.Profile, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, model.ErrInvalidRole
	}

	err := withTx(ctx, s.profileRepo, s.logger, func(tx pgx.Tx) error {
		if err := s.checkOwnerRemains(ctx, tx, id, role); err != nil {
			return err
		}
		return s.profileRepo.UpdateRole(ctx, tx, id, role)
	})
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, model.ErrProfileNotFound
	}

	s.logger.Info().
		Str("profile_id", id.String()).
		Str("role", string(role)).
		Str("actor", actor.ID.String()).
		Msg("role updated")

	return profile, nil
}

// Invite updates an existing user's role and returns a recovery link, or
// creates the user and either mails an invitation or falls back to a
// temporary password and signup link.
func (s *userService) Invite(ctx context.Context, req *model.InviteRequest) (*model.InviteResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Role == "" {
		return nil, model.ErrEmailAndRole
	}
	if !req.Role.Valid() {
		return nil, model.ErrInvalidRole
	}

	existing, err := s.identityRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if existing != nil {
		return s.reinvite(ctx, existing, req.Role)
	}

	identity := &model.Identity{ID: uuid.New(), Email: email}
	err = withTx(ctx, s.identityRepo, s.logger, func(tx pgx.Tx) error {
		if err := s.identityRepo.Create(ctx, tx, identity); err != nil {
			return err
		}
		return s.profileRepo.Upsert(ctx, tx, &model.Profile{ID: identity.ID, DisplayName: &email, Role: req.Role})
	})
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		err := s.sendLink(ctx, identity, model.LinkInvite, auth.InviteMail)
		if err == nil {
			s.logger.Info().Str("email", email).Str("role", string(req.Role)).Msg("invitation mailed")
			return &model.InviteResponse{
				OK:      true,
				Email:   email,
				Method:  InviteMethodEmail,
				Message: "invitation sent",
			}, nil
		}
		s.logger.Warn().Err(err).Str("email", email).Msg("invite mail failed, falling back to signup link")
	}

	tempPassword := auth.TempPassword()
	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		return nil, err
	}
	err = withTx(ctx, s.identityRepo, s.logger, func(tx pgx.Tx) error {
		return s.identityRepo.SetPassword(ctx, tx, identity.ID, hash, false)
	})
	if err != nil {
		return nil, err
	}

	link, err := s.newLink(ctx, identity.ID, model.LinkSignup)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", email).Str("role", string(req.Role)).Msg("signup link created")
	return &model.InviteResponse{
		OK:           true,
		Email:        email,
		Method:       InviteMethodSignupLink,
		SignupLink:   &link,
		TempPassword: tempPassword,
		Message:      "mail is not configured; share this link and temporary password with the user",
	}, nil
}

// checkOwnerRemains locks the OWNER rows and rejects giving id a non-OWNER
// role when it is the only OWNER left.
func (s *userService) checkOwnerRemains(ctx context.Context, tx pgx.Tx, id uuid.UUID, role model.Role) error {
	if role == model.RoleOwner {
		return nil
	}
	owners, err := s.profileRepo.LockOwners(ctx, tx)
	if err != nil {
		return err
	}
	if slices.Contains(owners, id) && len(owners) <= 1 {
		return model.ErrLastOwnerDemotion
	}
	return nil
}

func (s *userService) reinvite(ctx context.Context, identity *model.Identity, role model.Role) (*model.InviteResponse, error) {
	email := identity.Email
	err := withTx(ctx, s.profileRepo, s.logger, func(tx pgx.Tx) error {
		if err := s.checkOwnerRemains(ctx, tx, identity.ID, role); err != nil {
			return err
		}
		return s.profileRepo.Upsert(ctx, tx, &model.Profile{ID: identity.ID, DisplayName: &email, Role: role})
	})
	if err != nil {
		return nil, err
	}

	resp := &model.InviteResponse{
		OK:      true,
		Email:   email,
		Status:  InviteStatusUserExists,
		Message: "role updated",
	}

	link, err := s.newLink(ctx, identity.ID, model.LinkRecovery)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to create recovery link")
	} else {
		resp.RecoveryLink = &link
	}

	s.logger.Info().Str("email", email).Str("role", string(role)).Msg("existing user re-invited")
	return resp, nil
}

// ResetPassword creates a recovery link and mails it when mail works.
func (s *userService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) (*model.ResetPasswordResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, model.ErrEmailRequired
	}

	identity, err := s.identityRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if identity == nil {
		return nil, model.ErrUserNotFound
	}

	if s.mailer != nil {
		err := s.sendLink(ctx, identity, model.LinkRecovery, auth.RecoveryMail)
		if err == nil {
			return &model.ResetPasswordResponse{
				OK:      true,
				Mode:    ResetModeEmail,
				Message: "a reset link has been emailed to the user",
			}, nil
		}
		s.logger.Warn().Err(err).Str("email", email).Msg("recovery mail failed, returning link")
	}

	link, err := s.newLink(ctx, identity.ID, model.LinkRecovery)
	if err != nil {
		return nil, err
	}

	return &model.ResetPasswordResponse{
		OK:         true,
		Mode:       ResetModeManual,
		ActionLink: &link,
		Message:    "copy this link and send it to the user to reset their password",
	}, nil
}

// DeleteUser removes the target identity and, through the foreign key, its
// profile and tokens. OWNER rows stay locked until the delete commits.
func (s *userService) DeleteUser(ctx context.Context, req *model.DeleteUserRequest) error {
	if req.TargetUserID == uuid.Nil || req.ActorUserID == uuid.Nil {
		return model.ErrDeleteIDsRequired
	}
	if req.TargetUserID == req.ActorUserID {
		return model.ErrSelfDelete
	}

	err := withTx(ctx, s.identityRepo, s.logger, func(tx pgx.Tx) error {
		owners, err := s.profileRepo.LockOwners(ctx, tx)
		if err != nil {
			return err
		}
		if slices.Contains(owners, req.TargetUserID) && len(owners) <= 1 {
			return model.ErrLastOwner
		}
		return s.identityRepo.Delete(ctx, tx, req.TargetUserID)
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("target", req.TargetUserID.String()).
			Str("actor", req.ActorUserID.String()).
			Msg("user delete rejected")
		return err
	}

	s.logger.Info().
		Str("target", req.TargetUserID.String()).
		Str("actor", req.ActorUserID.String()).
		Msg("user deleted")
	return nil
}

func (s *userService) newLink(ctx context.Context, userID uuid.UUID, kind model.LinkKind) (string, error) {
	token, raw := auth.NewAuthToken(userID, kind, s.links.TTL, s.now())
	if err := s.identityRepo.CreateToken(ctx, token); err != nil {
		return "", err
	}
	return auth.LinkURL(s.links.SiteURL, kind, raw), nil
}

func (s *userService) sendLink(ctx context.Context, identity *model.Identity, kind model.LinkKind, render func(string) (string, string)) error {
	link, err := s.newLink(ctx, identity.ID, kind)
	if err != nil {
		return err
	}
	subject, body := render(link)
	return s.mailer.Send(ctx, identity.Email, subject, body)
}
