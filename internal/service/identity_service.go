package service

import (
	"context"
	"fmt"
	"habit_tracker_backend/internal/config"
	"habit_tracker_backend/internal/util"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type LoginResult struct {
	User  *util.Identity `json:"user"`
	Token string         `json:"token,omitempty"`
}

// IdentityProvider 可插拔的身份来源
type IdentityProvider interface {
	Mode() string
	Authenticate(c *gin.Context) (*util.Identity, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

// GuestIdentityProvider 不做认证，所有请求都是配置中的访客
type GuestIdentityProvider struct {
	Guest util.Identity
}

func NewGuestIdentityProvider(cfg config.GuestConfig) *GuestIdentityProvider {
	return &GuestIdentityProvider{Guest: util.Identity{UserID: cfg.ID, Email: cfg.Email, Name: cfg.Name}}
}

func (p *GuestIdentityProvider) Mode() string { return util.IdentityGuest }

func (p *GuestIdentityProvider) Authenticate(c *gin.Context) (*util.Identity, error) {
	guest := p.Guest
	return &guest, nil
}

// Login 接受任意凭据，返回访客身份，提供了邮箱时回显该邮箱。
// 回显的邮箱不会保存，之后的请求仍是配置中的访客
func (p *GuestIdentityProvider) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	guest := p.Guest
	if email = strings.TrimSpace(email); email != "" {
		guest.Email = email
	}
	return &LoginResult{User: &guest}, nil
}

// JWTIdentityProvider Bearer Token 认证，登录时校验密码
type JWTIdentityProvider struct {
	Auth   *AuthService
	Secret string
	Expire time.Duration
}

func NewJWTIdentityProvider(auth *AuthService, cfg config.JWTConfig) *JWTIdentityProvider {
	return &JWTIdentityProvider{Auth: auth, Secret: cfg.Secret, Expire: cfg.ExpireTime}
}

func (p *JWTIdentityProvider) Mode() string { return util.IdentityJWT }

func (p *JWTIdentityProvider) Authenticate(c *gin.Context) (*util.Identity, error) {
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if tokenString == "" {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		return nil, util.ErrUnauthenticated
	}

	claims, err := util.ParseJWT(tokenString, p.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrUnauthenticated, err)
	}
	return claims.Identity(), nil
}

func (p *JWTIdentityProvider) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := p.Auth.VerifyCredentials(email, password)
	if err != nil {
		return nil, err
	}

	identity := &util.Identity{UserID: user.ID, Email: user.Email, Name: user.Name}
	token, err := util.GenerateJWT(identity, p.Secret, p.Expire)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: identity, Token: token}, nil
}

// NewIdentityProvider 按配置选择身份提供者
func NewIdentityProvider(cfg *config.Config, auth *AuthService) (IdentityProvider, error) {
	switch cfg.Identity.Provider {
	case util.IdentityGuest, "":
		return NewGuestIdentityProvider(cfg.Identity.Guest), nil
	case util.IdentityJWT:
		return NewJWTIdentityProvider(auth, cfg.JWT), nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Identity.Provider)
	}
}
