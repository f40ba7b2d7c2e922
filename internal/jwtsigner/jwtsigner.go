package jwtsigner

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidKey = errors.New("invalid ed25519 private key")

// Signer holds the single long-lived Ed25519 keypair used for access tokens.
type Signer struct {
	private  ed25519.PrivateKey
	public   ed25519.PublicKey
	KeyID    string
	Issuer   string
	Audience string
	TTL      time.Duration

	now func() time.Time
}

type Config struct {
	PrivateKeyB64 string // empty generates an ephemeral key
	KeyID         string
	Issuer        string
	Audience      string
	TTL           time.Duration
}

// New creates a signer from base64-encoded ed25519 private key bytes (64-byte
// key or 32-byte seed). Ephemeral reports whether a throwaway key was generated.
func New(cfg Config) (s *Signer, ephemeral bool, err error) {
	var priv ed25519.PrivateKey
	if cfg.PrivateKeyB64 == "" {
		_, priv, err = ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, false, err
		}
		ephemeral = true
	} else {
		raw, err := base64.StdEncoding.DecodeString(cfg.PrivateKeyB64)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		switch len(raw) {
		case ed25519.PrivateKeySize:
			priv = ed25519.PrivateKey(raw)
		case ed25519.SeedSize:
			priv = ed25519.NewKeyFromSeed(raw)
		default:
			return nil, false, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(raw))
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{
		private:  priv,
		public:   priv.Public().(ed25519.PublicKey),
		KeyID:    cfg.KeyID,
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		TTL:      ttl,
		now:      time.Now,
	}, ephemeral, nil
}

// Sign issues a JWT for subject sub carrying the extra claims. Registered
// claims always win over same-named extras.
func (s *Signer) Sign(sub string, claims map[string]any) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.TTL)

	m := jwt.MapClaims{}
	for k, v := range claims {
		m[k] = v
	}
	m["iss"] = s.Issuer
	m["sub"] = sub
	m["iat"] = now.Unix()
	m["exp"] = exp.Unix()
	if s.Audience != "" {
		m["aud"] = s.Audience
	}

	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, m)
	t.Header["kid"] = s.KeyID
	signed, err := t.SignedString(s.private)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses a token signed by this key and checks issuer, audience and expiry.
func (s *Signer) Verify(token string) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.Audience))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.public, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// PublicJWK renders the public part as JWK for the JWKS endpoint.
func (s *Signer) PublicJWK() map[string]any {
	return map[string]any{
		"kty": "OKP",
		"crv": "Ed25519",
		"alg": "EdDSA",
		"use": "sig",
		"kid": s.KeyID,
		"x":   base64.RawURLEncoding.EncodeToString(s.public),
	}
}

func (s *Signer) JWKS() map[string]any {
	return map[string]any{"keys": []any{s.PublicJWK()}}
}
