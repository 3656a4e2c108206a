package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/blogapi/internal/common"
	"github.com/dmitrijs2005/blogapi/internal/cryptox"
	"github.com/dmitrijs2005/blogapi/internal/dbx"
	"github.com/dmitrijs2005/blogapi/internal/logging"
	"github.com/dmitrijs2005/blogapi/internal/server/auth"
	"github.com/dmitrijs2005/blogapi/internal/server/config"
	"github.com/dmitrijs2005/blogapi/internal/server/models"
	"github.com/dmitrijs2005/blogapi/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginThrottle counts failed logins. *ratelimit.LoginLimiter implements it.
type LoginThrottle interface {
	Check(ctx context.Context, login, ip string) error
	Fail(ctx context.Context, login, ip string) error
	Reset(ctx context.Context, login string) error
}

type LoginRequest struct {
	// Login is an email or a username.
	Login    string
	Password string
	MFACode  string
	IP       string
}

type MFASetup struct {
	Secret          string
	ProvisioningURI string
}

// AuthService handles signup, login, refresh-token rotation and the MFA
// lifecycle on top of the user directory.
type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	users                        *UserService
	throttle                     LoginThrottle
	log                          logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	totpIssuer                   string
	mfaKey                       []byte
	now                          func() time.Time
}

const mfaKeySalt = "blog-mfa-secret"

// NewAuthService wires the service. A nil throttle disables login throttling.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, users *UserService, throttle LoginThrottle,
	cfg *config.Config, log logging.Logger) *AuthService {
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		users:                        users,
		throttle:                     throttle,
		log:                          log.With("module", "auth"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		totpIssuer:                   cfg.TOTPIssuer,
		mfaKey:                       cryptox.DeriveMasterKey([]byte(cfg.SecretKey), []byte(mfaKeySalt)),
		now:                          time.Now,
	}
}

// Signup creates the account; it does not log the user in.
func (s *AuthService) Signup(ctx context.Context, nu *models.NewUser) (*models.User, error) {
	return s.users.Create(ctx, nu)
}

// Login verifies credentials and, for MFA users, the TOTP code. Unknown
// logins and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	if err := s.checkThrottle(ctx, req); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).FindByEmailOrUsername(ctx, req.Login, req.Login)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, s.failLogin(ctx, req, common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		return nil, s.failLogin(ctx, req, common.ErrUnauthorized)
	}

	if user.MFAEnabled {
		ok, err := s.verifyMFA(user, req.MFACode)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, s.failLogin(ctx, req, common.ErrInvalidMFACode)
		}
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, req.Login); err != nil {
			s.log.Warn(ctx, "failed to reset login counter", "error", err)
		}
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return s.generateTokenPair(ctx, user.ID, s.db)
}

// Refresh validates a refresh token, rotates it transactionally and returns
// a fresh TokenPair. A token is single use: when a concurrent call consumed it
// first, the delete removes nothing and ErrInvalidToken is returned.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.ExpiredAt(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// SetupMFA generates and stores a new secret. MFA stays off until
// EnableMFA confirms a code produced from it.
func (s *AuthService) SetupMFA(ctx context.Context, userID string) (*MFASetup, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.MFAEnabled {
		return nil, &common.ConflictError{Field: "mfa", Message: "MFA already enabled"}
	}

	secret := auth.NewTOTPSecret()
	sealed, err := cryptox.Seal(secret, s.mfaKey)
	if err != nil {
		return nil, fmt.Errorf("error sealing mfa secret: %w", err)
	}
	if _, err := s.users.UpdateMfaSecret(ctx, userID, sealed); err != nil {
		return nil, err
	}

	return &MFASetup{
		Secret:          secret,
		ProvisioningURI: auth.TOTPProvisioningURI(secret, user.Email, s.totpIssuer),
	}, nil
}

// EnableMFA turns MFA on once code matches the pending secret. Refresh
// tokens issued before that are revoked.
func (s *AuthService) EnableMFA(ctx context.Context, userID, code string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.MFASecret == nil {
		return nil, common.ErrMFANotConfigured
	}
	if err := s.requireMFACode(user, code); err != nil {
		return nil, err
	}

	user, err = s.users.EnableMfa(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.RefreshTokens(s.db).DeleteForUser(ctx, userID); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "mfa enabled", "user_id", userID)
	return user, nil
}

// DisableMFA turns MFA off after one last valid code.
func (s *AuthService) DisableMFA(ctx context.Context, userID, code string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.MFAEnabled || user.MFASecret == nil {
		return nil, common.ErrMFANotConfigured
	}
	if err := s.requireMFACode(user, code); err != nil {
		return nil, err
	}

	user, err = s.users.DisableMfa(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "mfa disabled", "user_id", userID)
	return user, nil
}

// verifyMFA checks code against the user's stored secret, which is kept
// sealed under mfaKey.
func (s *AuthService) verifyMFA(user *models.User, code string) (bool, error) {
	if user.MFASecret == nil {
		return false, nil
	}
	secret, err := cryptox.Open(*user.MFASecret, s.mfaKey)
	if err != nil {
		return false, fmt.Errorf("error opening mfa secret: %w", err)
	}
	return auth.VerifyTOTP(secret, code, s.now()), nil
}

func (s *AuthService) requireMFACode(user *models.User, code string) error {
	ok, err := s.verifyMFA(user, code)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrInvalidMFACode
	}
	return nil
}

// VerifyAccessToken returns the user id carried by a valid access token.
func (s *AuthService) VerifyAccessToken(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// --- helpers below ---

// checkThrottle fails open when Redis is unreachable.
func (s *AuthService) checkThrottle(ctx context.Context, req LoginRequest) error {
	if s.throttle == nil {
		return nil
	}
	err := s.throttle.Check(ctx, req.Login, req.IP)
	if err == nil || errors.Is(err, common.ErrRateLimited) {
		return err
	}
	s.log.Warn(ctx, "login throttle unavailable", "error", err)
	return nil
}

func (s *AuthService) failLogin(ctx context.Context, req LoginRequest, cause error) error {
	if s.throttle != nil {
		if err := s.throttle.Fail(ctx, req.Login, req.IP); err != nil {
			s.log.Warn(ctx, "failed to record login failure", "error", err)
		}
	}
	s.log.Info(ctx, "login rejected", "login", req.Login, "reason", cause.Error())
	return cause
}

func (s *AuthService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
