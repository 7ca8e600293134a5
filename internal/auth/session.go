package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const (
	DefaultCookieName = "tina_session"
	SessionMaxAge     = 7 * 24 * time.Hour
)

var timeNowFunc = time.Now

type sessionClaims struct {
	Authenticated bool  `json:"authenticated"`
	IssuedAt      int64 `json:"iat"`
}

// Sessions issues and verifies password sessions. A token is
// base64url(payload) + "." + hex(HMAC-SHA256(payload)).
type Sessions struct {
	secret       []byte
	password     string
	cookieName   string
	secureCookie bool
}

func NewSessions(config Config) *Sessions {
	secret := config.SessionSecret
	if secret == "" {
		secret = config.AdminPassword
	}
	cookieName := config.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Sessions{
		secret:       []byte(secret),
		password:     config.AdminPassword,
		cookieName:   cookieName,
		secureCookie: config.SecureCookie,
	}
}

func (s *Sessions) CreateToken() (string, error) {
	payload, err := json.Marshal(sessionClaims{
		Authenticated: true,
		IssuedAt:      timeNowFunc().Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload) + "." + s.sign(payload), nil
}

// VerifyToken reports whether token carries a valid signature, an
// authenticated payload and is not older than SessionMaxAge.
func (s *Sessions) VerifyToken(token string) bool {
	encoded, signature, found := strings.Cut(token, ".")
	if !found || encoded == "" || signature == "" {
		return false
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return false
	}

	if !hmac.Equal([]byte(signature), []byte(s.sign(payload))) {
		return false
	}

	var claims sessionClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return false
	}
	if !claims.Authenticated {
		return false
	}

	age := timeNowFunc().Unix() - claims.IssuedAt
	return age <= int64(SessionMaxAge/time.Second)
}

func (s *Sessions) VerifyPassword(password string) bool {
	if s.password == "" {
		log.Error().Msg("Admin password is not configured")
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
}

func (s *Sessions) TokenFromRequest(ctx *fasthttp.RequestCtx) string {
	return string(ctx.Request.Header.Cookie(s.cookieName))
}

func (s *Sessions) SetSessionCookie(ctx *fasthttp.RequestCtx, token string) {
	cookie := s.newCookie(token)
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetMaxAge(int(SessionMaxAge / time.Second))
	ctx.Response.Header.SetCookie(cookie)
}

func (s *Sessions) ClearSessionCookie(ctx *fasthttp.RequestCtx) {
	cookie := s.newCookie("")
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetExpire(fasthttp.CookieExpireDelete)
	ctx.Response.Header.SetCookie(cookie)
}

func (s *Sessions) newCookie(value string) *fasthttp.Cookie {
	cookie := fasthttp.AcquireCookie()
	cookie.SetKey(s.cookieName)
	cookie.SetValue(value)
	cookie.SetPath("/")
	cookie.SetHTTPOnly(true)
	cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	cookie.SetSecure(s.secureCookie)
	return cookie
}

func (s *Sessions) sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
