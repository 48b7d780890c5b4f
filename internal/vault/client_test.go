package vault_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"veopm/internal/config"
	"veopm/internal/services"
	"veopm/internal/testsupport"
	"veopm/internal/vault"
)

func newClient(t *testing.T) (*vault.Client, *testsupport.FakeVault) {
	t.Helper()
	fake, server := testsupport.NewFakeVault(t, "test-bucket")
	cfg := config.Vault{
		Bucket:     "test-bucket",
		APIBase:    server.URL,
		UploadBase: server.URL,
	}
	return vault.NewClient(cfg, vault.StaticTokenSource("test-token")), fake
}

func TestGetAbsentObject(t *testing.T) {
	client, _ := newClient(t)

	data, found, err := client.Get(context.Background(), "projects/demo/state.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found || data != nil {
		t.Fatalf("expected absent, got found=%v data=%q", found, data)
	}
}

func TestPutThenGetRoundTrip(t *testing.T) {
	client, fake := newClient(t)
	ctx := context.Background()

	publicURL, err := client.Put(ctx, "projects/demo/state.json", []byte(`{"slug":"demo"}`), "application/json")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if publicURL != "https://storage.googleapis.com/test-bucket/projects/demo/state.json" {
		t.Fatalf("public url = %q", publicURL)
	}
	if fake.Mime("projects/demo/state.json") != "application/json" {
		t.Fatalf("content type = %q", fake.Mime("projects/demo/state.json"))
	}

	data, found, err := client.Get(ctx, "projects/demo/state.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || string(data) != `{"slug":"demo"}` {
		t.Fatalf("round trip: found=%v data=%q", found, data)
	}
}

func TestPutBase64DecodesPayload(t *testing.T) {
	client, fake := newClient(t)

	if _, err := client.PutBase64(context.Background(), "library/x/image.png", "aGVsbG8=", "image/png"); err != nil {
		t.Fatalf("PutBase64: %v", err)
	}
	data, ok := fake.Object("library/x/image.png")
	if !ok || string(data) != "hello" {
		t.Fatalf("stored = %q", data)
	}
}

func TestPutBase64RejectsInvalidPayload(t *testing.T) {
	client, _ := newClient(t)

	_, err := client.PutBase64(context.Background(), "library/x/image.png", "not base64!!", "image/png")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestListStripsPrefix(t *testing.T) {
	client, fake := newClient(t)

	fake.SetObject("projects/alpha/state.json", []byte("{}"), "application/json")
	fake.SetObject("projects/beta/state.json", []byte("{}"), "application/json")
	fake.SetObject("projects/beta/units/u1/clip.mp4", []byte("x"), "video/mp4")
	fake.SetObject("library/prop/rock/artifact.json", []byte("{}"), "application/json")

	names, err := client.List(context.Background(), "projects/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "beta"}) {
		t.Fatalf("names = %v", names)
	}
}

func TestTransportErrorCarriesProviderMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "insufficient permissions"}}`))
	}))
	defer server.Close()

	client := vault.NewClient(config.Vault{
		Bucket:     "test-bucket",
		APIBase:    server.URL,
		UploadBase: server.URL,
	}, vault.StaticTokenSource("test-token"))

	_, _, err := client.Get(context.Background(), "projects/demo/state.json")
	if !errors.Is(err, services.ErrVaultTransport) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "insufficient permissions") {
		t.Fatalf("provider message missing: %v", err)
	}
}
