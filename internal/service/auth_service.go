package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"teranga/internal/apierror"
	"teranga/internal/authz"
	"teranga/internal/config"
	"teranga/internal/dto"
	"teranga/internal/model"
	"teranga/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login and Refresh; handlers answer 401.
var ErrInvalidCredentials = errors.New("invalid credentials")

const bcryptCost = 12

// Token types carried in the "typ" claim.
const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

// Claims are the custom claims embedded in every staff token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	// ResolveActor validates an access token and returns its actor. Any
	// failure yields authz.Anonymous together with the error.
	ResolveActor(accessToken string) (authz.Actor, error)
	Profile(actor authz.Actor) dto.ProfileResponse

	CreateUser(ctx context.Context, actor authz.Actor, req dto.CreateUserRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, actor authz.Actor, includeInactive bool) ([]dto.UserResponse, error)
	UpdateUser(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	SetUserActive(ctx context.Context, actor authz.Actor, id uuid.UUID, active bool) error
}

type authService struct {
	repo repository.UserRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	log.Info().Str("username", user.Username).Msg("auth: login")
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.parse(refreshToken, tokenRefresh)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Active {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

func (s *authService) ResolveActor(accessToken string) (authz.Actor, error) {
	claims, err := s.parse(accessToken, tokenAccess)
	if err != nil {
		return authz.Anonymous, err
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return authz.Anonymous, err
	}
	role := authz.ParseRole(claims.Role)
	if role == authz.RoleAnonymous {
		return authz.Anonymous, errors.New("unknown role claim")
	}
	return authz.Actor{UserID: uid, Username: claims.Username, Name: claims.Name, Role: role}, nil
}

func (s *authService) Profile(actor authz.Actor) dto.ProfileResponse {
	resp := dto.ProfileResponse{
		Username:            actor.Username,
		Name:                actor.Name,
		Role:                string(actor.Role),
		IsAdmin:             actor.IsAdmin(),
		IsStaff:             actor.IsStaff(),
		CanValidatePayments: actor.CanValidatePayments(),
		Permissions:         []string{},
	}
	if actor.IsAuthenticated() {
		resp.UserID = actor.UserID.String()
	}
	for _, p := range authz.Permissions() {
		if authz.Can(actor, p) {
			resp.Permissions = append(resp.Permissions, string(p))
		}
	}
	sort.Strings(resp.Permissions)
	return resp
}

func (s *authService) CreateUser(ctx context.Context, actor authz.Actor, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := authz.Require(actor, authz.PermUserManage); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context, actor authz.Actor, includeInactive bool) ([]dto.UserResponse, error) {
	if err := authz.Require(actor, authz.PermUserManage); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) UpdateUser(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := authz.Require(actor, authz.PermUserManage); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user %s not found", id)
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) SetUserActive(ctx context.Context, actor authz.Actor, id uuid.UUID, active bool) error {
	if err := authz.Require(actor, authz.PermUserManage); err != nil {
		return err
	}
	if !active && id == actor.UserID {
		return apierror.E(apierror.KindValidation, "you cannot deactivate your own account")
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return notFoundOr(err, "user %s not found", id)
	}
	return nil
}

func (s *authService) issueTokens(user *model.User) (*dto.LoginResponse, error) {
	access, err := s.generateToken(user, tokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(user, tokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         userToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.User, typ string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID.String(),
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *authService) parse(tokenStr, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Type != wantType {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Active:   u.Active,
	}
}
