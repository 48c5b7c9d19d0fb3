package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saplayer-checkout/internal/infrastructure/config"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenSource_Token(t *testing.T) {
	t.Run("正常系: 有効なトークンを返す", func(t *testing.T) {
		raw := signedToken(t, testSecret, jwt.MapClaims{
			"user_id": "buyer123",
			"email":   "buyer@example.org",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		source := NewTokenSource(&config.AuthConfig{SessionToken: raw, JWTSecret: testSecret})

		got, err := source.Token(context.Background())

		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("正常系: トークン未設定は空文字列を返す", func(t *testing.T) {
		source := NewTokenSource(&config.AuthConfig{})

		got, err := source.Token(context.Background())

		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("正常系: シークレット未設定でも有効期限は確認される", func(t *testing.T) {
		raw := signedToken(t, "other-secret", jwt.MapClaims{
			"user_id": "buyer123",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		source := NewTokenSource(&config.AuthConfig{SessionToken: raw})

		got, err := source.Token(context.Background())

		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("異常系: 期限切れトークン", func(t *testing.T) {
		raw := signedToken(t, testSecret, jwt.MapClaims{
			"user_id": "buyer123",
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		source := NewTokenSource(&config.AuthConfig{SessionToken: raw, JWTSecret: testSecret})

		_, err := source.Token(context.Background())

		assert.ErrorIs(t, err, ErrInvalidSessionToken)
	})

	t.Run("異常系: シークレット未設定で期限切れトークン", func(t *testing.T) {
		raw := signedToken(t, testSecret, jwt.MapClaims{
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		source := NewTokenSource(&config.AuthConfig{SessionToken: raw})

		_, err := source.Token(context.Background())

		assert.ErrorIs(t, err, ErrInvalidSessionToken)
	})

	t.Run("異常系: シークレット未設定でexpクレームなし", func(t *testing.T) {
		raw := signedToken(t, testSecret, jwt.MapClaims{
			"user_id": "buyer123",
		})
		source := NewTokenSource(&config.AuthConfig{SessionToken: raw})

		_, err := source.Token(context.Background())

		assert.ErrorIs(t, err, ErrInvalidSessionToken)
	})

	t.Run("異常系: 署名が一致しない", func(t *testing.T) {
		raw := signedToken(t, "other-secret", jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		source := NewTokenSource(&config.AuthConfig{SessionToken: raw, JWTSecret: testSecret})

		_, err := source.Token(context.Background())

		assert.ErrorIs(t, err, ErrInvalidSessionToken)
	})

	t.Run("異常系: JWTとして解析できない文字列", func(t *testing.T) {
		source := NewTokenSource(&config.AuthConfig{SessionToken: "not-a-jwt", JWTSecret: testSecret})

		_, err := source.Token(context.Background())

		assert.ErrorIs(t, err, ErrInvalidSessionToken)
	})
}

func TestTokenSource_UserClaims(t *testing.T) {
	t.Run("正常系: ユーザーIDとメールアドレスを取り出す", func(t *testing.T) {
		raw := signedToken(t, testSecret, jwt.MapClaims{
			"user_id": "buyer123",
			"email":   "buyer@example.org",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		source := NewTokenSource(&config.AuthConfig{SessionToken: raw, JWTSecret: testSecret})

		userID, email, err := source.UserClaims()

		require.NoError(t, err)
		assert.Equal(t, "buyer123", userID)
		assert.Equal(t, "buyer@example.org", email)
	})

	t.Run("異常系: トークン未設定", func(t *testing.T) {
		source := NewTokenSource(&config.AuthConfig{})

		_, _, err := source.UserClaims()

		assert.ErrorIs(t, err, ErrNoSessionToken)
	})

	t.Run("異常系: 期限切れトークンからは取り出せない", func(t *testing.T) {
		raw := signedToken(t, testSecret, jwt.MapClaims{
			"user_id": "buyer123",
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		source := NewTokenSource(&config.AuthConfig{SessionToken: raw, JWTSecret: testSecret})

		_, _, err := source.UserClaims()

		assert.ErrorIs(t, err, ErrInvalidSessionToken)
	})
}
