package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")
var ErrUserAlreadyExists = errors.New("username already exists")
var ErrTokenInvalid = errors.New("token is invalid or expired")

type AuthService struct {
	userRepo           repository.UserRepository
	jwtSecret          string
	jwtExpirationHours time.Duration
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpHours time.Duration) *AuthService {
	return &AuthService{
		userRepo:           userRepo,
		jwtSecret:          jwtSecret,
		jwtExpirationHours: jwtExpHours,
	}
}

func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error) {
	existingUser, err := s.userRepo.FindByUsername(ctx, dto.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("error checking existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// admin is never self-assignable through registration
	userRole := domain.RoleDriver
	if dto.Role == domain.RoleOwner {
		userRole = domain.RoleOwner
	}

	user := &domain.User{
		Username: dto.Username,
		Password: string(hashedPassword),
		Role:     userRole,
	}

	createdUser, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	createdUser.Password = ""
	return createdUser, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByUsername(ctx, dto.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	expirationTime := time.Now().Add(s.jwtExpirationHours)
	customClaims := jwt.MapClaims{
		"sub":      fmt.Sprintf("%d", user.ID),
		"exp":      expirationTime.Unix(),
		"iat":      time.Now().Unix(),
		"role":     user.Role,
		"username": user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, customClaims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("error signing token: %w", err)
	}

	return &domain.AuthResponseDTO{
		Token:    tokenString,
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// ValidateToken is used by the auth middleware.
func (s *AuthService) ValidateToken(tokenString string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, nil, fmt.Errorf("%w: token is malformed", ErrTokenInvalid)
		} else if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, fmt.Errorf("%w: token has expired", ErrTokenInvalid)
		} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, nil, fmt.Errorf("%w: token is not valid yet", ErrTokenInvalid)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, nil, ErrTokenInvalid
	}
	return token, claims, nil
}
