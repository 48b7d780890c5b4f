package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"veopm/internal/services"
	"veopm/internal/vault/auth"
)

func testKeyDocument(t *testing.T, tokenURI string) ([]byte, *rsa.PrivateKey) {
	t.Helper()

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(rsaKey)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	doc, err := json.Marshal(map[string]string{
		"client_email": "svc@example.iam.gserviceaccount.com",
		"private_key":  string(pemKey),
		"token_uri":    tokenURI,
	})
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	return doc, rsaKey
}

func TestMintExchangesSignedAssertion(t *testing.T) {
	var rsaKey *rsa.PrivateKey

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "urn:ietf:params:oauth:grant-type:jwt-bearer" {
			t.Errorf("grant_type = %q", got)
		}

		assertion := r.PostFormValue("assertion")
		parsed, err := jwt.Parse(assertion, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodRS256 {
				return nil, errors.New("unexpected signing method")
			}
			return &rsaKey.PublicKey, nil
		}, jwt.WithTimeFunc(func() time.Time {
			return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		}))
		if err != nil || !parsed.Valid {
			t.Errorf("assertion invalid: %v", err)
		}
		claims := parsed.Claims.(jwt.MapClaims)
		if claims["iss"] != "svc@example.iam.gserviceaccount.com" {
			t.Errorf("iss = %v", claims["iss"])
		}
		if claims["scope"] != "https://www.googleapis.com/auth/cloud-platform" {
			t.Errorf("scope = %v", claims["scope"])
		}
		iat, _ := claims["iat"].(float64)
		exp, _ := claims["exp"].(float64)
		if exp-iat != 3600 {
			t.Errorf("lifetime = %v", exp-iat)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "minted-token",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	doc, key := testKeyDocument(t, server.URL)
	rsaKey = key

	parsed, err := auth.ParseKey(doc)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	minter := auth.NewMinter(parsed, auth.WithClock(func() time.Time {
		return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	}))

	token, err := minter.Mint(context.Background())
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if token.AccessToken != "minted-token" || token.ExpiresIn != 3600 {
		t.Fatalf("token = %+v", token)
	}
}

func TestMintSurfacesExchangeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant", "error_description": "Invalid JWT signature."}`))
	}))
	defer server.Close()

	doc, _ := testKeyDocument(t, server.URL)
	parsed, err := auth.ParseKey(doc)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}

	_, err = auth.NewMinter(parsed).Mint(context.Background())
	if !errors.Is(err, services.ErrAuthExchange) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid JWT signature") {
		t.Fatalf("provider detail missing: %v", err)
	}
}

func TestParseKeyDefaultsTokenURI(t *testing.T) {
	doc, _ := testKeyDocument(t, "")
	parsed, err := auth.ParseKey(doc)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if parsed.TokenURI != "https://oauth2.googleapis.com/token" {
		t.Fatalf("token uri = %q", parsed.TokenURI)
	}
}

func TestParseKeyRejectsMissingEmail(t *testing.T) {
	if _, err := auth.ParseKey([]byte(`{"private_key": "x"}`)); err == nil {
		t.Fatal("expected error for missing client_email")
	}
}
