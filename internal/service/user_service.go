package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"backend/internal/apperr"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type RegisterUserRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Role           string `json:"role" binding:"required,oneof=super_admin manufacturer_admin client_admin client_sales_rep"`
	OrganizationID string `json:"organization_id"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserService interface {
	Register(ctx context.Context, actor model.Actor, req RegisterUserRequest) (*model.User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUser(ctx context.Context, id string) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With().Str("component", "user_service").Logger(),
	}
}

// Register creates an account. Only manufacturer-side admins create users;
// dealer-side accounts must carry an organization.
func (s *userService) Register(ctx context.Context, actor model.Actor, req RegisterUserRequest) (*model.User, error) {
	if !actor.ManufacturerSide() {
		return nil, apperr.Forbidden(actor.Role, "register users")
	}

	var orgID *uuid.UUID
	if req.OrganizationID != "" {
		parsed, err := uuid.Parse(req.OrganizationID)
		if err != nil {
			return nil, apperr.Validation("user", "invalid organization_id: %v", err)
		}
		orgID = &parsed
	}
	if (req.Role == model.RoleClientAdmin || req.Role == model.RoleClientSalesRep) && orgID == nil {
		return nil, apperr.Validation("user", "dealer-side roles require an organization_id")
	}

	if existing, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, apperr.Conflict("user", fmt.Sprintf("email %q already registered", req.Email))
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:          req.Email,
		Password:       string(hashed),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           req.Role,
		OrganizationID: orgID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Str("email", user.Email).Str("role", user.Role).Msg("user registered")
	return user, nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		// Do not reveal whether the email exists.
		return nil, apperr.Validation("auth", "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Validation("auth", "invalid email or password")
	}
	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token: the presented token is consumed even
// when it turns out to be expired.
func (s *userService) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	stored, err := s.userRepo.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, apperr.Validation("auth", "invalid refresh token")
	}
	if err := s.userRepo.DeleteRefreshToken(ctx, req.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, apperr.Validation("auth", "refresh token expired")
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperr.Validation("auth", "invalid refresh token")
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("user", "invalid id: %v", err)
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(accessTokenTTL).Unix(),
	}
	if user.OrganizationID != nil {
		claims["org"] = user.OrganizationID.String()
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.GetJWTSecret())
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refresh := hex.EncodeToString(raw)

	if err := s.userRepo.SaveRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
