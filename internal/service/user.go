package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Ali-Uen/todo-service/internal/models"
	"github.com/Ali-Uen/todo-service/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUserAlreadyExists signals an email or provider-identity collision.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound signals that a referenced user no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidState signals an operation not permitted for the user's
	// auth provider, such as a password change on an external identity.
	ErrInvalidState = errors.New("operation not allowed for this auth provider")
	// ErrPasswordTooLong signals a password over the bcrypt input limit.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// maxPasswordBytes is the bcrypt input limit; longer passwords are
// rejected rather than hashed truncated.
const maxPasswordBytes = 72

// UserService contains the business rules for user identities. It is the
// sole writer of user records.
type UserService interface {
	RegisterPassword(ctx context.Context, email, username, password string) (*models.User, error)
	AuthenticatePassword(ctx context.Context, email, password string) (*models.User, error)
	ReconcileExternal(ctx context.Context, email, username string, provider models.AuthProvider, subject string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, newPassword string) error
	Enable(ctx context.Context, userID int64) error
	Disable(ctx context.Context, userID int64) error
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// normalizeEmail fixes the email comparison policy: surrounding whitespace
// stripped, ASCII case folded. Applied before every lookup and every write
// so the application checks and the unique index agree.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterPassword creates a new password user. The email must not belong
// to any existing user, password or external.
func (s *userService) RegisterPassword(ctx context.Context, email, username, password string) (*models.User, error) {
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	email = normalizeEmail(email)

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		AuthProvider: models.AuthProviderPassword,
		Enabled:      true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// The existence check above is only a fast path; the unique index
		// is the real guarantee under concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

// AuthenticatePassword resolves an email/password pair to a user. It
// returns (nil, nil) when the email is unknown, the user is not a password
// user, the password does not match, or the user is disabled. The four
// cases are deliberately indistinguishable to the caller.
func (s *userService) AuthenticatePassword(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if user.AuthProvider != models.AuthProviderPassword {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	if !user.Enabled {
		return nil, nil
	}
	return user, nil
}

// ReconcileExternal maps an external-provider identity to exactly one user
// record. A repeat sign-in with a known (provider, subject) pair updates
// the display name and returns the existing record. A new pair whose email
// is already claimed by any other user fails hard: cross-provider identity
// takeover is never silent.
func (s *userService) ReconcileExternal(ctx context.Context, email, username string, provider models.AuthProvider, subject string) (*models.User, error) {
	if !provider.External() {
		return nil, fmt.Errorf("%w: %s is not an external provider", ErrInvalidState, provider)
	}

	user, err := s.userRepo.FindByProviderAndSubject(ctx, provider, subject)
	if err == nil {
		user.Username = username
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	email = normalizeEmail(email)
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	user = &models.User{
		Email:           email,
		Username:        username,
		AuthProvider:    provider,
		ProviderSubject: &subject,
		Enabled:         true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes the user's display name.
func (s *userService) UpdateProfile(ctx context.Context, userID int64, username string) (*models.User, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Username = username
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePassword rehashes and stores a new password. Only password users
// can change passwords.
func (s *userService) UpdatePassword(ctx context.Context, userID int64, newPassword string) error {
	if len(newPassword) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.AuthProvider != models.AuthProviderPassword {
		return ErrInvalidState
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	return s.userRepo.Update(ctx, user)
}

// Enable re-activates a user account.
func (s *userService) Enable(ctx context.Context, userID int64) error {
	return s.setEnabled(ctx, userID, true)
}

// Disable deactivates a user account. Existing tokens stay valid until
// their natural expiry, but no new tokens will be issued.
func (s *userService) Disable(ctx context.Context, userID int64) error {
	return s.setEnabled(ctx, userID, false)
}

func (s *userService) setEnabled(ctx context.Context, userID int64, enabled bool) error {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.Enabled = enabled
	return s.userRepo.Update(ctx, user)
}
