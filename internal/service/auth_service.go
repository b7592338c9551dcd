package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/queue"
	"github.com/iliyamo/notes-api/internal/repository"
	"github.com/iliyamo/notes-api/internal/utils"
)

// AuthConfig carries the settings the auth flows need from config.Config.
type AuthConfig struct {
	AdminRole            string
	EmailConfirmationURL string
	PasswordRecoveryURL  string
	// ReclaimDeleted lets registration revive a soft-deleted account that
	// holds the same email.
	ReclaimDeleted bool
}

// AuthService implements the session lifecycle: register, login, refresh
// rotation, logout, password change/recovery and email confirmation.
type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	hasher PasswordHasher
	mail   MailPublisher
	cfg    AuthConfig
	own    Ownership
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens TokenIssuer, hasher PasswordHasher, mail MailPublisher, cfg AuthConfig, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		mail:   mail,
		cfg:    cfg,
		own:    Ownership{AdminRole: cfg.AdminRole},
		log:    log.WithField("component", "auth"),
		now:    time.Now,
	}
}

// Register creates the account (or reclaims a soft-deleted one), opens a
// session and queues the welcome and confirmation emails.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (utils.TokenPair, error) {
	s.log.Debug("register")
	in.normalize()
	if err := validate(in); err != nil {
		return utils.TokenPair{}, err
	}

	existing, err := s.users.FindAnyByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return utils.TokenPair{}, err
	}
	if existing != nil && (!existing.Deleted || !s.cfg.ReclaimDeleted) {
		return utils.TokenPair{}, fmt.Errorf("%w: email already in use", ErrConflict)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return utils.TokenPair{}, err
	}
	u := &model.User{
		Email:          in.Email,
		Firstname:      in.Firstname,
		Lastname:       in.Lastname,
		ProfilePicture: in.ProfilePicture,
		PasswordHash:   hash,
		Status:         model.StatusActive,
	}
	if existing != nil {
		// tokens signed for the previous holder carry an earlier iat
		epoch := s.now().UTC().Truncate(time.Second)
		u.ID = existing.ID
		u.SessionsValidFrom = &epoch
		if err := s.users.Reclaim(ctx, u); err != nil {
			return utils.TokenPair{}, storeErr(err, "user")
		}
		s.log.WithField("user_id", u.ID).Info("reclaimed soft-deleted account")
	} else {
		id, err := s.users.Create(ctx, u)
		if errors.Is(err, repository.ErrDuplicate) {
			return utils.TokenPair{}, fmt.Errorf("%w: email already in use", ErrConflict)
		}
		if err != nil {
			return utils.TokenPair{}, err
		}
		u.ID = id
	}

	pair, err := s.openSession(ctx, u)
	if err != nil {
		return utils.TokenPair{}, err
	}

	s.enqueue(ctx, queue.NewMailRequest(queue.KindRegistration, u.Email, u.Firstname, ""))
	s.enqueue(ctx, queue.NewMailRequest(queue.KindEmailConfirmation, u.Email, u.Firstname, withToken(s.cfg.EmailConfirmationURL, pair.AccessToken)))
	return pair, nil
}

// Login verifies the password and rotates the stored refresh hash.  A wrong
// password leaves the stored session untouched.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (utils.TokenPair, error) {
	s.log.Debug("login")
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(in); err != nil {
		return utils.TokenPair{}, err
	}
	u, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.TokenPair{}, fmt.Errorf("%w: user does not exist", ErrNotFound)
	}
	if err != nil {
		return utils.TokenPair{}, err
	}
	if !s.hasher.Verify(in.Password, u.PasswordHash) {
		s.log.WithField("user_id", u.ID).Warn("login failed: invalid password")
		return utils.TokenPair{}, fmt.Errorf("%w: invalid password", ErrUnauthorized)
	}
	return s.openSession(ctx, u)
}

// Refresh exchanges a refresh token for a new pair.  The token must match
// the stored hash; the consumed token stops working once the new hash is
// written.
func (s *AuthService) Refresh(ctx context.Context, userID uint64, refreshToken string) (utils.TokenPair, error) {
	s.log.Debug("refresh")
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.TokenPair{}, fmt.Errorf("%w: access denied", ErrForbidden)
	}
	if err != nil {
		return utils.TokenPair{}, err
	}
	if u.RefreshTokenHash == nil || !s.hasher.VerifyToken(refreshToken, *u.RefreshTokenHash) {
		s.log.WithField("user_id", u.ID).Warn("refresh denied: token does not match session")
		return utils.TokenPair{}, fmt.Errorf("%w: access denied", ErrForbidden)
	}
	return s.openSession(ctx, u)
}

// ChangePassword sets a new password for the target user.  The actor must
// be the target or an admin.  Fresh tokens for the target are returned.
func (s *AuthService) ChangePassword(ctx context.Context, actor *model.User, in ChangePasswordInput) (utils.TokenPair, error) {
	s.log.Debug("change password")
	if err := validate(in); err != nil {
		return utils.TokenPair{}, err
	}
	if actor == nil || (actor.ID != in.ID && !s.own.IsAdmin(actor)) {
		return utils.TokenPair{}, fmt.Errorf("%w: cannot change another user's password", ErrUnauthorized)
	}
	target, err := s.users.FindByID(ctx, in.ID)
	if err != nil {
		return utils.TokenPair{}, storeErr(err, "user")
	}
	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return utils.TokenPair{}, err
	}
	if err := s.users.UpdatePassword(ctx, target.ID, hash); err != nil {
		return utils.TokenPair{}, err
	}
	s.log.WithFields(logrus.Fields{"user_id": target.ID, "actor_id": actor.ID}).Info("password changed")
	return s.openSession(ctx, target)
}

// RecoverPassword mails a reset link carrying a fresh access token.  The
// password is not touched until the user calls change-password with it.
func (s *AuthService) RecoverPassword(ctx context.Context, in RecoverPasswordInput) error {
	s.log.Debug("recover password")
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(in); err != nil {
		return err
	}
	u, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: account does not exist", ErrNotFound)
	}
	if err != nil {
		return err
	}
	pair, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return err
	}
	req := queue.NewMailRequest(queue.KindPasswordRecovery, u.Email, u.Firstname, withToken(s.cfg.PasswordRecoveryURL, pair.AccessToken))
	if err := s.mail.Publish(ctx, req); err != nil {
		return fmt.Errorf("queue recovery email: %w", err)
	}
	return nil
}

// Logout ends the session by clearing the stored refresh hash.  It is
// idempotent.
func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	s.log.WithField("user_id", userID).Debug("logout")
	return s.users.SetRefreshTokenHash(ctx, userID, nil)
}

// SendEmailConfirmationEmail queues a confirmation link for u.
func (s *AuthService) SendEmailConfirmationEmail(ctx context.Context, u *model.User) error {
	s.log.Debug("send email confirmation")
	pair, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return err
	}
	req := queue.NewMailRequest(queue.KindEmailConfirmation, u.Email, u.Firstname, withToken(s.cfg.EmailConfirmationURL, pair.AccessToken))
	if err := s.mail.Publish(ctx, req); err != nil {
		return fmt.Errorf("queue confirmation email: %w", err)
	}
	return nil
}

// ConfirmEmail marks u's address as confirmed.  It succeeds once; any later
// call is a bad request.
func (s *AuthService) ConfirmEmail(ctx context.Context, u *model.User) error {
	s.log.Debug("confirm email")
	if u.IsEmailConfirmed {
		return fmt.Errorf("%w: email already confirmed", ErrBadRequest)
	}
	changed, err := s.users.ConfirmEmail(ctx, u.ID)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("%w: email already confirmed", ErrBadRequest)
	}
	u.IsEmailConfirmed = true
	s.enqueue(ctx, queue.NewMailRequest(queue.KindEmailConfirmed, u.Email, u.Firstname, ""))
	return nil
}

// Profile returns the client-safe view of u.
func (s *AuthService) Profile(u *model.User) UserView {
	return NewUserView(u)
}

// openSession issues a pair for u and stores the refresh token hash,
// replacing any previous session.
func (s *AuthService) openSession(ctx context.Context, u *model.User) (utils.TokenPair, error) {
	pair, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return utils.TokenPair{}, err
	}
	hash, err := s.hasher.HashToken(pair.RefreshToken)
	if err != nil {
		return utils.TokenPair{}, err
	}
	if err := s.users.SetRefreshTokenHash(ctx, u.ID, &hash); err != nil {
		return utils.TokenPair{}, err
	}
	return pair, nil
}

// enqueue publishes a mail whose failure must not undo an already
// committed state change.
func (s *AuthService) enqueue(ctx context.Context, req queue.MailRequest) {
	if err := s.mail.Publish(ctx, req); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"kind":  req.Kind,
			"email": req.To,
		}).Warn("queue mail failed")
	}
}

// withToken appends token as the "token" query parameter of base.
func withToken(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
