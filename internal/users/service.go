package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound indicates that no user matches the requested id or username.
	ErrUserNotFound = errors.New("users: user not found")
	// ErrUsernameTaken indicates that the requested username is already registered.
	ErrUsernameTaken = errors.New("users: username already taken")
	// ErrEmailTaken indicates that the requested email is already registered.
	ErrEmailTaken = errors.New("users: email already taken")
	// ErrInvalidCredentials indicates that email/password authentication failed.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrInvalidRegistration indicates that a registration field is empty.
	ErrInvalidRegistration = errors.New("users: invalid registration")

	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// IDProvider issues identifiers for new users.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the user directory.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service resolves and maintains user accounts.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService constructs the user directory service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return User{}, ErrInvalidRegistration
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		return User{}, fmt.Errorf("users: generate id: %w", err)
	}

	now := s.clock().UTC()
	user := User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return User{}, classifyDuplicate(s.db.WithContext(ctx), id, username)
		}
		s.logger.Error("user insert failed", zap.Error(err), zap.String("username", username))
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies the email/password pair and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ByID resolves a user by its canonical identifier.
func (s *Service) ByID(ctx context.Context, id string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ByUsername resolves a user by its unique username.
func (s *Service) ByUsername(ctx context.Context, username string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateParams carries the optional fields of a profile update. Nil fields are
// left unchanged.
type UpdateParams struct {
	Username *string
	Email    *string
	Password *string
	Bio      *string
	ImageURL *string
}

// Update applies a partial profile update and returns the stored user.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (User, error) {
	var updated User
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		err := tx.Where("id = ?", id).Take(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if params.Username != nil && strings.TrimSpace(*params.Username) != "" {
			changes["username"] = strings.TrimSpace(*params.Username)
		}
		if params.Email != nil && strings.TrimSpace(*params.Email) != "" {
			changes["email"] = strings.TrimSpace(*params.Email)
		}
		if params.Password != nil && *params.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("users: hash password: %w", err)
			}
			changes["password_hash"] = string(hash)
		}
		if params.Bio != nil {
			changes["bio"] = *params.Bio
		}
		if params.ImageURL != nil {
			changes["image_url"] = *params.ImageURL
		}
		if len(changes) == 0 {
			updated = user
			return nil
		}
		changes["updated_at"] = s.clock().UTC()

		if err := tx.Model(&User{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				username := user.Username
				if v, ok := changes["username"].(string); ok {
					username = v
				}
				return classifyDuplicate(tx, id, username)
			}
			return err
		}
		return tx.Where("id = ?", id).Take(&updated).Error
	})
	if txErr != nil {
		return User{}, txErr
	}
	return updated, nil
}

// classifyDuplicate resolves which unique index rejected an insert or update.
// The storage constraint is the authority; this re-read only names the loser.
func classifyDuplicate(db *gorm.DB, selfID, username string) error {
	var count int64
	err := db.Model(&User{}).
		Where("username = ? AND id <> ?", username, selfID).
		Count(&count).Error
	if err == nil && count > 0 {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}
