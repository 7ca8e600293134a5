package auth

import (
	"bytes"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"
)

type Mode string

const (
	ModeLocal   Mode = "local"
	ModeProxy   Mode = "proxy"
	ModeSession Mode = "session"
)

type Config struct {
	Mode          Mode        `mapstructure:"mode"`
	AdminPassword string      `mapstructure:"admin_password"`
	SessionSecret string      `mapstructure:"session_secret"`
	CookieName    string      `mapstructure:"cookie_name"`
	SecureCookie  bool        `mapstructure:"secure_cookie"`
	Proxy         ProxyConfig `mapstructure:"proxy"`
}

type ProxyConfig struct {
	Headers         []string `mapstructure:"headers"`
	CookieMarker    string   `mapstructure:"cookie_marker"`
	AssertionHeader string   `mapstructure:"assertion_header"`
	AssertionSecret string   `mapstructure:"assertion_secret"`
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLocal, ModeProxy:
		return nil
	case ModeSession:
		if c.AdminPassword == "" {
			return fmt.Errorf("session auth requires an admin password")
		}
		return nil
	default:
		return fmt.Errorf("unknown auth mode: %q", c.Mode)
	}
}

// Policy decides whether a request may reach the media routes.
type Policy interface {
	Authorize(ctx *fasthttp.RequestCtx) bool
	Mode() Mode
}

func NewPolicy(config Config, sessions *Sessions) (Policy, error) {
	switch config.Mode {
	case ModeLocal:
		return OpenPolicy{}, nil
	case ModeProxy:
		return NewProxyPolicy(config.Proxy), nil
	case ModeSession:
		return &SessionPolicy{sessions: sessions}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode: %q", config.Mode)
	}
}

// OpenPolicy admits everything. Only for trusted local editing.
type OpenPolicy struct{}

func (OpenPolicy) Authorize(*fasthttp.RequestCtx) bool { return true }

func (OpenPolicy) Mode() Mode { return ModeLocal }

// ProxyPolicy trusts requests that went through an authenticating reverse
// proxy. Without an assertion secret it only checks that proxy headers or the
// proxy's session cookie are present, which a client can forge unless the
// proxy strips them. With a secret it requires an HS256 JWT in the assertion
// header instead.
type ProxyPolicy struct {
	headers         []string
	cookieMarker    []byte
	assertionHeader string
	assertionSecret []byte
}

func NewProxyPolicy(config ProxyConfig) *ProxyPolicy {
	headers := config.Headers
	if len(headers) == 0 {
		headers = []string{"X-Vercel-Id", "X-Forwarded-For"}
	}
	assertionHeader := config.AssertionHeader
	if assertionHeader == "" {
		assertionHeader = "X-Proxy-Assertion"
	}
	return &ProxyPolicy{
		headers:         headers,
		cookieMarker:    []byte(config.CookieMarker),
		assertionHeader: assertionHeader,
		assertionSecret: []byte(config.AssertionSecret),
	}
}

func (p *ProxyPolicy) Authorize(ctx *fasthttp.RequestCtx) bool {
	if len(p.assertionSecret) > 0 {
		return p.verifyAssertion(string(ctx.Request.Header.Peek(p.assertionHeader)))
	}

	for _, header := range p.headers {
		if len(ctx.Request.Header.Peek(header)) > 0 {
			return true
		}
	}
	if len(p.cookieMarker) > 0 {
		return bytes.Contains(ctx.Request.Header.Peek(fasthttp.HeaderCookie), p.cookieMarker)
	}
	return false
}

func (p *ProxyPolicy) Mode() Mode { return ModeProxy }

func (p *ProxyPolicy) verifyAssertion(raw string) bool {
	if raw == "" {
		return false
	}
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return p.assertionSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(timeNowFunc),
	)
	return err == nil && token.Valid
}

// SessionPolicy admits requests carrying a valid session cookie.
type SessionPolicy struct {
	sessions *Sessions
}

func (p *SessionPolicy) Authorize(ctx *fasthttp.RequestCtx) bool {
	token := p.sessions.TokenFromRequest(ctx)
	if token == "" {
		return false
	}
	return p.sessions.VerifyToken(token)
}

func (p *SessionPolicy) Mode() Mode { return ModeSession }
