package service

import (
	"context"
	"errors"
	"time"

	"github.com/Ali-Uen/todo-service/internal/models"
)

// ErrInvalidCredentials signals a failed password login. Unknown email,
// wrong password, wrong provider and disabled account all collapse into
// this one error.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserInfo is the caller-visible slice of a user record, embedded in auth
// responses.
type UserInfo struct {
	ID           int64               `json:"id"`
	Email        string              `json:"email"`
	Username     string              `json:"username"`
	AuthProvider models.AuthProvider `json:"auth_provider"`
	CreatedAt    time.Time           `json:"created_at"`
}

// LoginResponse is the token pair handed out on every successful
// registration, login or refresh.
type LoginResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	User         UserInfo `json:"user"`
}

// AuthService bridges identities and tokens. It is the only component that
// mints token pairs.
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*LoginResponse, error)
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	LoginExternal(ctx context.Context, email, username string, provider models.AuthProvider, subject string) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error)
	IssueSession(user *models.User) (*LoginResponse, error)
	Authorize(accessToken string) (*Claims, error)
}

type authService struct {
	users UserService
	jwt   JWTService
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(users UserService, jwtService JWTService) AuthService {
	return &authService{
		users: users,
		jwt:   jwtService,
	}
}

// Register creates a password user and issues the first session.
func (s *authService) Register(ctx context.Context, email, username, password string) (*LoginResponse, error) {
	user, err := s.users.RegisterPassword(ctx, email, username, password)
	if err != nil {
		return nil, err
	}
	return s.IssueSession(user)
}

// Login authenticates a password user and issues a session.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.users.AuthenticatePassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return s.IssueSession(user)
}

// LoginExternal reconciles an external-provider identity and issues a
// session for the resolved user.
func (s *authService) LoginExternal(ctx context.Context, email, username string, provider models.AuthProvider, subject string) (*LoginResponse, error) {
	user, err := s.users.ReconcileExternal(ctx, email, username, provider, subject)
	if err != nil {
		return nil, err
	}
	if !user.Enabled {
		return nil, ErrInvalidCredentials
	}
	return s.IssueSession(user)
}

// Refresh exchanges a valid refresh token for a brand-new token pair. The
// user is re-resolved from the store since the account may have been
// deleted or disabled after the token was minted. The old refresh token
// stays independently valid until its own expiry; tokens are stateless and
// there is no revocation list.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.Enabled {
		// A disabled account must not obtain fresh tokens even from a live
		// refresh token. Collapsed into the generic token failure.
		return nil, ErrInvalidToken
	}
	return s.IssueSession(user)
}

// IssueSession mints an independent access/refresh pair for the given
// user. It does not check Enabled; the login and refresh flows gate on
// that before calling here.
func (s *authService) IssueSession(user *models.User) (*LoginResponse, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwt.GetAccessExpiry().Seconds()),
		User: UserInfo{
			ID:           user.ID,
			Email:        user.Email,
			Username:     user.Username,
			AuthProvider: user.AuthProvider,
			CreatedAt:    user.CreatedAt,
		},
	}, nil
}

// Authorize resolves a bearer access token to its claims for use as the
// request principal. It never touches the store; embedded claims are
// trusted for the lifetime of the token.
func (s *authService) Authorize(accessToken string) (*Claims, error) {
	return s.jwt.ValidateAccessToken(accessToken)
}
