package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/users"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ErrInvalidCredentials is returned for any failed login so callers cannot
// tell unknown emails from wrong passwords.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperr.ErrForbidden)

const tokenTTL = 24 * time.Hour

type Service struct {
	db     *gorm.DB
	secret []byte
	now    func() time.Time
}

func NewService(db *gorm.DB, jwtSecret string) *Service {
	return &Service{db: db, secret: []byte(jwtSecret), now: time.Now}
}

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*users.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, apperr.Validation("invalid email format")
	}
	if !isPasswordStrong(password) {
		return nil, apperr.Validation("password must be at least 8 characters long and contain both letters and numbers")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var taken int64
	if err := s.db.WithContext(ctx).Model(&users.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
		return nil, apperr.Store("check email", err)
	}
	if taken > 0 {
		return nil, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}

	u := users.User{Name: strings.TrimSpace(name), Email: email, Password: string(hashed), Role: users.RoleUser}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, apperr.Store("create user", err)
	}
	return &u, nil
}

// Login checks the password and returns a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *users.User, error) {
	var u users.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, apperr.Store("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.Issue(u)
	if err != nil {
		return "", nil, err
	}
	return token, &u, nil
}

func (s *Service) Issue(u users.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    u.Role,
		"exp":     s.now().Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	var u users.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user")
		}
		return apperr.Store("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	if !isPasswordStrong(next) {
		return apperr.Validation("password must be at least 8 characters long and contain both letters and numbers")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return apperr.Store("update password", s.db.WithContext(ctx).Model(&u).Update("password", string(hashed)).Error)
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id uint) (*users.User, error) {
	var u users.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, apperr.Store("load user", err)
	}
	return &u, nil
}

// Promote sets a user's role. Used from the CLI to create the first admin.
func (s *Service) Promote(ctx context.Context, email, role string) error {
	if role != users.RoleUser && role != users.RoleAdmin {
		return apperr.Validation("unknown role %q", role)
	}
	res := s.db.WithContext(ctx).Model(&users.User{}).Where("email = ?", strings.ToLower(email)).Update("role", role)
	if res.Error != nil {
		return apperr.Store("set role", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user " + email)
	}
	return nil
}
