package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"saplayer-checkout/internal/infrastructure/config"
)

var (
	// ErrNoSessionToken セッショントークンが設定されていないエラー
	ErrNoSessionToken = errors.New("no session token available")
	// ErrInvalidSessionToken セッショントークンが無効または期限切れのエラー
	ErrInvalidSessionToken = errors.New("session token is invalid or expired")
)

// TokenSource 保存済みのログインセッションJWTを供給する
// 決済開始前にクライアント側で署名と有効期限を確認し、
// 期限切れトークンのままホスト型決済ページへ進むことを防ぐ
type TokenSource struct {
	token  string
	secret []byte
}

// NewTokenSource 新しいTokenSourceを作成
func NewTokenSource(cfg *config.AuthConfig) *TokenSource {
	return &TokenSource{
		token:  cfg.SessionToken,
		secret: []byte(cfg.JWTSecret),
	}
}

// Token 検証済みのセッショントークンを返す
// トークン未設定の場合は空文字列を返す（匿名のままバックエンドに委ねる）
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", nil
	}
	if err := s.verify(); err != nil {
		return "", err
	}
	return s.token, nil
}

// UserClaims トークンからユーザーIDとメールアドレスを取り出す
func (s *TokenSource) UserClaims() (userID string, email string, err error) {
	if s.token == "" {
		return "", "", ErrNoSessionToken
	}
	claims, err := s.parseClaims()
	if err != nil {
		return "", "", err
	}
	userID, _ = claims["user_id"].(string)
	email, _ = claims["email"].(string)
	return userID, email, nil
}

// verify 署名と有効期限を確認する
func (s *TokenSource) verify() error {
	if len(s.secret) == 0 {
		// シークレット未設定の場合は有効期限のみ確認する
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(s.token, claims); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
		}
		exp, err := claims.GetExpirationTime()
		if err != nil || exp == nil || exp.Before(time.Now()) {
			return ErrInvalidSessionToken
		}
		return nil
	}

	token, err := jwt.Parse(s.token, func(token *jwt.Token) (interface{}, error) {
		// 署名アルゴリズムの確認
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	return nil
}

// parseClaims クレームを取り出す（署名検証はverifyに準ずる）
func (s *TokenSource) parseClaims() (jwt.MapClaims, error) {
	if len(s.secret) == 0 {
		claims := jwt.MapClaims{}
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(s.token, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
		}
		return claims, nil
	}

	token, err := jwt.Parse(s.token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}
