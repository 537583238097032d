package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/jsinglet/mrva_go_server/config"
	"github.com/jsinglet/mrva_go_server/internal/model/dto"
	"github.com/jsinglet/mrva_go_server/internal/pkg/jwt"
)

var ErrInvalidAPIKey = errors.New("无效的 API Key")

// AuthService API Key 换取 JWT
// Key 以 bcrypt 哈希预置在配置中，没有用户注册流程
type AuthService struct {
	cfg *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// ExchangeToken 校验 API Key 并签发 JWT
func (s *AuthService) ExchangeToken(apiKey string) (*dto.TokenResponse, error) {
	for _, k := range s.cfg.APIKeys {
		if bcrypt.CompareHashAndPassword([]byte(k.KeyHash), []byte(apiKey)) == nil {
			token, err := jwt.GenerateToken(k.UserID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
			if err != nil {
				return nil, err
			}
			return &dto.TokenResponse{
				Token:     token,
				ExpiresIn: s.cfg.JWT.ExpireHours * 3600,
			}, nil
		}
	}
	return nil, ErrInvalidAPIKey
}
