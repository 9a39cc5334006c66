package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fdg312/nomnom/internal/config"
	"github.com/fdg312/nomnom/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already exists")
	ErrMissingFields      = errors.New("email and password required")
)

const bcryptCost = 10

// Service — сервис авторизации
type Service struct {
	config  *config.Config
	storage storage.UsersStorage
}

func NewService(cfg *config.Config, storage storage.UsersStorage) *Service {
	return &Service{
		config:  cfg,
		storage: storage,
	}
}

// Register создаёт аккаунт с bcrypt-хешем пароля
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*storage.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := "user"
	for _, admin := range s.config.AdminEmails {
		if email == admin {
			role = "admin"
			break
		}
	}

	user := &storage.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		FullName:     req.FullName,
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

// Login проверяет пароль и выдаёт JWT
func (s *Service) Login(ctx context.Context, req *LoginRequest) (string, *storage.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return "", nil, ErrMissingFields
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateJWT(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate JWT: %w", err)
	}

	return token, user, nil
}

// GetUser возвращает аккаунт по id (для /auth/me)
func (s *Service) GetUser(ctx context.Context, id int64) (*storage.User, error) {
	return s.storage.GetUserByID(ctx, id)
}

// generateJWT — генерация JWT токена
func (s *Service) generateJWT(userID int64, role string) (string, error) {
	now := time.Now()
	exp := now.Add(time.Duration(s.config.JWTTTLMinutes) * time.Minute)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"iss":  s.config.JWTIssuer,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT — проверка JWT токена, возвращает id и роль
func (s *Service) VerifyJWT(tokenString string) (int64, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})

	if err != nil {
		return 0, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = "user"
	}

	return userID, role, nil
}
