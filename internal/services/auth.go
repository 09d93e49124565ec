package services

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/havenline/haven-backend/internal/data/repos"
	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/pkg/ctxutil"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
	"github.com/havenline/haven-backend/internal/platform/envutil"
	"github.com/havenline/haven-backend/internal/platform/logger"
)

const tokenTTL = 24 * time.Hour

type RegisterInput struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ExternalAuthID string `json:"external_auth_id"`
}

type AuthResult struct {
	User  *types.User `json:"user"`
	Token string      `json:"token"`
}

type AuthService interface {
	Register(dbc dbctx.Context, input RegisterInput) (*AuthResult, error)
	Login(dbc dbctx.Context, email, password string) (*AuthResult, error)
	// ParseToken validates a bearer token and returns the request identity.
	ParseToken(token string) (*ctxutil.RequestData, error)
}

type authService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	secret   []byte
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) AuthService {
	return &authService{
		db:       db,
		log:      log.With("service", "AuthService"),
		userRepo: userRepo,
		secret:   []byte(envutil.String("JWT_SECRET", "dev-only-secret")),
	}
}

func (as *authService) Register(dbc dbctx.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", pkgerr.ErrInvalidArgument)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", pkgerr.ErrInvalidArgument)
	}

	exists, err := as.userRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", pkgerr.ErrInvalidArgument)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		ID:             uuid.New(),
		Email:          email,
		Password:       string(hashed),
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		ExternalAuthID: strings.TrimSpace(input.ExternalAuthID),
	}
	if user.ExternalAuthID == "" {
		user.ExternalAuthID = user.ID.String()
	}
	if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := as.signToken(user)
	if err != nil {
		return nil, err
	}
	as.log.Info("User registered", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

func (as *authService) Login(dbc dbctx.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		// Same failure shape whether the account exists or not.
		return nil, pkgerr.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, pkgerr.ErrUnauthorized
	}

	token, err := as.signToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (as *authService) ParseToken(tokenStr string) (*ctxutil.RequestData, error) {
	parsed, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, pkgerr.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, pkgerr.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, pkgerr.ErrUnauthorized
	}
	email, _ := claims["email"].(string)

	return &ctxutil.RequestData{UserID: userID, Email: email}, nil
}

func (as *authService) signToken(user *types.User) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(as.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
