package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a username/password pair does not
// match an existing user.
var ErrInvalidCredentials = errors.New("incorrect username or password")

// ErrUserInactive is returned when the authenticated user has been deactivated.
var ErrUserInactive = errors.New("user is inactive")

// Service provides authentication operations: registration, password login,
// token issuance and current-user resolution.
type Service struct {
	userRepo   UserRepository
	tokens     *TokenManager
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(userRepo UserRepository, tokens *TokenManager, bcryptCost int) *Service {
	return &Service{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new user with a bcrypt-hashed password. Returns
// ErrDuplicateUser when the username or email is already taken.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Username:       username,
		Email:          email,
		HashedPassword: string(hash),
		IsActive:       true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate resolves a username/password pair to a User. Returns
// ErrInvalidCredentials when the user is unknown or the password does not
// match; the two cases are indistinguishable to callers.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// IssueToken produces a signed bearer token for the given user.
func (s *Service) IssueToken(user *User) (string, error) {
	return s.tokens.Issue(user)
}

// ResolveIdentity verifies a bearer token and loads the user it identifies.
// Token failures surface as ErrTokenInvalid/ErrTokenExpired; a valid token
// whose user no longer exists returns ErrUserNotFound, and a deactivated
// user returns ErrUserInactive.
func (s *Service) ResolveIdentity(ctx context.Context, tokenStr string) (*Identity, error) {
	claims, err := s.tokens.Verify(tokenStr)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return &Identity{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}, nil
}

// UpdateUser applies a partial profile update, hashing the password when one
// is provided. Absent fields are left untouched.
func (s *Service) UpdateUser(ctx context.Context, id int64, update ProfileUpdate) (*User, error) {
	fields := UpdateFields{
		Username: update.Username,
		Email:    update.Email,
		IsActive: update.IsActive,
		IsAdmin:  update.IsAdmin,
	}

	if update.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		hashed := string(hash)
		fields.HashedPassword = &hashed
	}

	return s.userRepo.Update(ctx, id, fields)
}
