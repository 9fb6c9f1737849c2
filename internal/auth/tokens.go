// Package auth issues and checks the bearer tokens the API accepts. A token
// names a storefront user, a merchant, or both.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	claimUserID     = "uid"
	claimMerchantID = "mid"

	defaultTTL = 15 * time.Minute
)

var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrNoSubject    = errors.New("auth: token names neither a user nor a merchant")
)

// Claims are the identities a token carries.
type Claims struct {
	UserID     string
	MerchantID string
}

// Tokens signs and verifies HS256 access tokens.
type Tokens struct {
	Secret    []byte
	Issuer    string
	Audience  string
	TTL       time.Duration
	ClockSkew time.Duration

	now func() time.Time
}

func NewTokens(secret, issuer, audience string) *Tokens {
	return &Tokens{Secret: []byte(secret), Issuer: issuer, Audience: audience, TTL: defaultTTL, ClockSkew: 30 * time.Second}
}

func (t *Tokens) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// Issue returns a signed token for c and its expiry.
func (t *Tokens) Issue(c Claims) (string, time.Time, error) {
	if c.UserID == "" && c.MerchantID == "" {
		return "", time.Time{}, ErrNoSubject
	}
	ttl := t.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	now := t.clock()
	exp := now.Add(ttl)

	subject := c.UserID
	if subject == "" {
		subject = c.MerchantID
	}
	b := jwt.NewBuilder().Subject(subject).IssuedAt(now).NotBefore(now).Expiration(exp)
	if t.Issuer != "" {
		b = b.Issuer(t.Issuer)
	}
	if t.Audience != "" {
		b = b.Audience([]string{t.Audience})
	}
	if c.UserID != "" {
		b = b.Claim(claimUserID, c.UserID)
	}
	if c.MerchantID != "" {
		b = b.Claim(claimMerchantID, c.MerchantID)
	}
	tok, err := b.Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, t.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return string(signed), exp, nil
}

// Parse verifies the signature, algorithm, issuer, audience and time claims.
func (t *Tokens) Parse(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}
	if err := requireHS256(raw); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, t.Secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(t.clock)),
	}
	if t.ClockSkew > 0 {
		opts = append(opts, jwt.WithAcceptableSkew(t.ClockSkew))
	}
	if t.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.Issuer))
	}
	if t.Audience != "" {
		opts = append(opts, jwt.WithAudience(t.Audience))
	}
	tok, err := jwt.ParseString(raw, opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c := Claims{UserID: stringClaim(tok, claimUserID), MerchantID: stringClaim(tok, claimMerchantID)}
	if c.UserID == "" && c.MerchantID == "" {
		return Claims{}, ErrNoSubject
	}
	return c, nil
}

// requireHS256 rejects tokens signed with anything but HS256, including "none".
func requireHS256(raw string) error {
	msg, err := jws.ParseString(raw)
	if err != nil {
		return err
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return errors.New("expected exactly one signature")
	}
	headers := sigs[0].ProtectedHeaders()
	if headers == nil {
		return errors.New("missing protected headers")
	}
	if alg := headers.Algorithm(); alg != jwa.HS256 {
		return fmt.Errorf("unexpected algorithm %s", alg)
	}
	return nil
}

func stringClaim(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
