// Package csrf mints and checks stateless, time-bounded CSRF tokens.
//
// A token is "<nonce>.<unix expiry>.<hex hmac>" where the MAC covers the nonce
// and expiry. No server-side storage is needed, so any instance holding the
// same secret can verify a token minted by another.
package csrf

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/clock"
	"github.com/shandysiswandi/gootp/internal/pkg/hash"
	"github.com/shandysiswandi/gootp/internal/pkg/uid"
)

var (
	ErrMalformed = errors.New("csrf: malformed token")
	ErrSignature = errors.New("csrf: bad signature")
	ErrExpired   = errors.New("csrf: token expired")
	ErrNoSecret  = errors.New("csrf: secret is required")
)

// DefaultTTL is used when Config.TTL is not positive.
const DefaultTTL = time.Hour

type Config struct {
	Secret []byte
	TTL    time.Duration
	Clock  clock.Clocker
	Nonce  uid.StringID
}

// Token is a minted token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type CSRF struct {
	mac   hash.Hash
	ttl   time.Duration
	clock clock.Clocker
	nonce uid.StringID
}

func New(cfg Config) (*CSRF, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrNoSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Nonce == nil {
		cfg.Nonce = uid.NewRandomUUID()
	}

	return &CSRF{
		mac:   hash.NewHMACSHA256(cfg.Secret),
		ttl:   cfg.TTL,
		clock: cfg.Clock,
		nonce: cfg.Nonce,
	}, nil
}

// Mint returns a fresh token.
func (c *CSRF) Mint() (Token, error) {
	exp := c.clock.Now().Add(c.ttl).Truncate(time.Second)
	payload := c.nonce.Generate() + "." + strconv.FormatInt(exp.Unix(), 10)

	sig, err := c.mac.Hash(payload)
	if err != nil {
		return Token{}, err
	}

	return Token{Value: payload + "." + string(sig), ExpiresAt: exp}, nil
}

// Verify checks the signature and expiry of token.
func (c *CSRF) Verify(token string) error {
	i := strings.LastIndexByte(token, '.')
	if i <= 0 {
		return ErrMalformed
	}
	payload, sig := token[:i], token[i+1:]

	_, expRaw, ok := strings.Cut(payload, ".")
	if !ok {
		return ErrMalformed
	}
	exp, err := strconv.ParseInt(expRaw, 10, 64)
	if err != nil {
		return ErrMalformed
	}

	if !c.mac.Verify(sig, payload) {
		return ErrSignature
	}

	if c.clock.Now().After(time.Unix(exp, 0)) {
		return ErrExpired
	}

	return nil
}
