// Package auth handles admin accounts and the bearer tokens that guard the
// /api/admin routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"japoke-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errBadCredentials = fiber.NewError(fiber.StatusUnauthorized, "Email o contraseña incorrectos")

type UserStore interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, u *models.AdminUser) error
	ByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.AdminUser{}).Count(&n).Error
	return n, err
}

func (s *GormUserStore) Create(ctx context.Context, u *models.AdminUser) error {
	return s.db.WithContext(ctx).Create(u).Error
}

// ByEmail returns nil, nil when no admin has that email.
func (s *GormUserStore) ByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type Service struct {
	users  UserStore
	secret string
	now    func() time.Time
}

func NewService(users UserStore, secret string) *Service {
	return &Service{users: users, secret: secret, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Register creates the first admin. Once an admin exists, new accounts are
// refused.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.AdminUser, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return nil, fiber.NewError(fiber.StatusForbidden, "Ya existe un administrador")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.AdminUser{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, *models.AdminUser, error) {
	u, err := s.users.ByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, fmt.Errorf("load admin: %w", err)
	}
	if u == nil {
		return "", nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, errBadCredentials
	}
	token, err := GenerateToken(s.secret, u, s.now())
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, u, nil
}
