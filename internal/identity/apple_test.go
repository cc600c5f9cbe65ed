package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func appleServer(t *testing.T, key *rsa.PrivateKey, kid string) *httptest.Server {
	t.Helper()
	pub := key.Public().(*rsa.PublicKey)
	body, _ := json.Marshal(appleJWKS{Keys: []appleJWK{{
		Kty: "RSA",
		Kid: kid,
		Use: "sig",
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func appleToken(t *testing.T, key *rsa.PrivateKey, kid, sub, email, aud string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   appleIssuer,
		"sub":   sub,
		"aud":   aud,
		"email": email,
		"iat":   time.Now().Unix(),
		"exp":   exp.Unix(),
	})
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAppleSignIn(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	srv := appleServer(t, key, "k1")
	store := newMemCredentials()
	p := NewAppleProvider(NewAppleKeys(srv.URL), store, []string{"com.eventcenter.app"})
	ctx := context.Background()

	tok := appleToken(t, key, "k1", "apple-sub-1", "ana@icloud.com", "com.eventcenter.app", time.Now().Add(time.Hour))
	first, err := p.SignIn(ctx, AppleToken(tok, "Ana"))
	if err != nil {
		t.Fatal(err)
	}
	if first.DisplayName != "Ana" || first.Email != "ana@icloud.com" {
		t.Fatalf("unexpected identity %+v", first)
	}

	again, err := p.SignIn(ctx, AppleToken(tok, ""))
	if err != nil {
		t.Fatal(err)
	}
	if again.UserID != first.UserID {
		t.Fatalf("apple subject should map to a stable uid: %q vs %q", again.UserID, first.UserID)
	}
}

func TestAppleLinksExistingEmail(t *testing.T) {
	key, _ := rsa.GenerateKey(rand.Reader, 2048)
	srv := appleServer(t, key, "k1")
	store := newMemCredentials()
	pw := NewPasswordProvider(store)
	existing, err := pw.Register(context.Background(), "Ana", "ana@icloud.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	p := NewAppleProvider(NewAppleKeys(srv.URL), store, []string{"com.eventcenter.app"})
	tok := appleToken(t, key, "k1", "apple-sub-2", "ana@icloud.com", "com.eventcenter.app", time.Now().Add(time.Hour))
	id, err := p.SignIn(context.Background(), AppleToken(tok, ""))
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != existing.UserID {
		t.Fatalf("expected linked account %q, got %q", existing.UserID, id.UserID)
	}
}

func TestAppleRejects(t *testing.T) {
	key, _ := rsa.GenerateKey(rand.Reader, 2048)
	other, _ := rsa.GenerateKey(rand.Reader, 2048)
	srv := appleServer(t, key, "k1")
	p := NewAppleProvider(NewAppleKeys(srv.URL), newMemCredentials(), []string{"com.eventcenter.app"})

	tests := []struct {
		name  string
		token string
	}{
		{"expired", appleToken(t, key, "k1", "s", "a@b.c", "com.eventcenter.app", time.Now().Add(-time.Hour))},
		{"wrong audience", appleToken(t, key, "k1", "s", "a@b.c", "com.other", time.Now().Add(time.Hour))},
		{"wrong signer", appleToken(t, other, "k1", "s", "a@b.c", "com.eventcenter.app", time.Now().Add(time.Hour))},
		{"unknown kid", appleToken(t, key, "k9", "s", "a@b.c", "com.eventcenter.app", time.Now().Add(time.Hour))},
		{"garbage", "not.a.jwt"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.SignIn(context.Background(), AppleToken(tt.token, "")); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("got %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestAppleKeysUnavailable(t *testing.T) {
	key, _ := rsa.GenerateKey(rand.Reader, 2048)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewAppleProvider(NewAppleKeys(srv.URL), newMemCredentials(), []string{"com.eventcenter.app"})
	tok := appleToken(t, key, "k1", "s", "a@b.c", "com.eventcenter.app", time.Now().Add(time.Hour))
	if _, err := p.SignIn(context.Background(), AppleToken(tok, "")); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("got %v, want ErrProviderUnavailable", err)
	}
}
