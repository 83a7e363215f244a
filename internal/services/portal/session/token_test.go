package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenCarriesSessionAndPrincipal(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	signer := tokenSigner{secret: []byte("k"), now: func() time.Time { return now }}
	sess := Session{ID: "s-1", Principal: Principal{ID: "u-1", Role: "Admin"}, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	raw, err := signer.sign(sess)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sessionID, principalID, err := signer.verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sessionID != "s-1" || principalID != "u-1" {
		t.Fatalf("got (%q, %q)", sessionID, principalID)
	}

	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if claims.ID != "s-1" || claims.Subject != "u-1" || claims.Issuer != tokenIssuer {
		t.Fatalf("claims = %+v", claims.RegisteredClaims)
	}
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	signer := tokenSigner{secret: []byte("k"), now: time.Now}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, tokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID: "s", Subject: "u", Issuer: tokenIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	raw, err := token.SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, _, err := signer.verify(raw); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	issuer := tokenSigner{secret: []byte("k"), now: func() time.Time { return now }}
	raw, err := issuer.sign(Session{ID: "s", Principal: Principal{ID: "u"}, CreatedAt: now, ExpiresAt: now.Add(time.Minute)})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	later := tokenSigner{secret: []byte("k"), now: func() time.Time { return now.Add(time.Hour) }}
	if _, _, err := later.verify(raw); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
}
