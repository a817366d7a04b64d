package account

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smilecare/smilecare/internal/platform/apperr"
	"github.com/smilecare/smilecare/internal/platform/auth"
)

// Service implements registration and login over the user repository.
type Service struct {
	repo   Repository
	tokens *auth.TokenManager
}

func NewService(repo Repository, tokens *auth.TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// RegisterInput carries the register payload. Password arrives in clear and
// is hashed with bcrypt before storage.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" {
		return nil, apperr.Validation("name", "is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, apperr.Validation("email", "must be a valid email address")
	}
	if len(in.Password) < 8 {
		return nil, apperr.Validation("password", "must be at least 8 characters")
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation("email", "already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{Name: in.Name, Email: in.Email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.respond(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResponse, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("email", "email and password are required")
	}
	u, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return nil, apperr.Auth("invalid credentials")
	}
	return s.respond(u)
}

// CurrentUser resolves the authenticated caller's public record.
func (s *Service) CurrentUser(ctx context.Context, id uuid.UUID) (*UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	info := u.Info()
	return &info, nil
}

func (s *Service) respond(u *User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(u.ID.String(), u.Name, u.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: u.Info()}, nil
}
