package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
)

// FakeVault is an in-memory object store speaking the storage JSON API
// subset the vault client uses: media download, media upload, and prefix
// listing with a delimiter.
type FakeVault struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	mimes   map[string]string
}

// NewFakeVault starts a fake storage server for one bucket and registers
// cleanup. Point the vault client's api and upload bases at Server.URL.
func NewFakeVault(t testing.TB, bucket string) (*FakeVault, *httptest.Server) {
	t.Helper()

	fake := &FakeVault{
		bucket:  bucket,
		objects: make(map[string][]byte),
		mimes:   make(map[string]string),
	}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return fake, server
}

// Object returns a stored object's bytes and whether it exists.
func (f *FakeVault) Object(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	return data, ok
}

// SetObject seeds an object directly.
func (f *FakeVault) SetObject(path string, data []byte, mimeType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = data
	f.mimes[path] = mimeType
}

// Mime returns the content type recorded for a stored object.
func (f *FakeVault) Mime(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mimes[path]
}

func (f *FakeVault) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := "/" + f.bucket + "/o"
	escaped := r.URL.EscapedPath()
	if !strings.HasPrefix(escaped, prefix) {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("Authorization") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	rest := strings.TrimPrefix(escaped, prefix)

	switch {
	case r.Method == http.MethodPost && rest == "":
		f.handleUpload(w, r)
	case r.Method == http.MethodGet && rest == "":
		f.handleList(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(rest, "/"):
		f.handleDownload(w, r, strings.TrimPrefix(rest, "/"))
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeVault) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, err := url.QueryUnescape(r.URL.Query().Get("name"))
	if err != nil || name == "" {
		http.Error(w, "missing object name", http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.objects[name] = data
	f.mimes[name] = r.Header.Get("Content-Type")
	f.mu.Unlock()

	_ = json.NewEncoder(w).Encode(map[string]string{"name": name})
}

func (f *FakeVault) handleDownload(w http.ResponseWriter, r *http.Request, escapedName string) {
	name, err := url.QueryUnescape(escapedName)
	if err != nil {
		http.Error(w, "bad object name", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	data, ok := f.objects[name]
	mime := f.mimes[name]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if mime != "" {
		w.Header().Set("Content-Type", mime)
	}
	_, _ = w.Write(data)
}

func (f *FakeVault) handleList(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	delimiter := r.URL.Query().Get("delimiter")

	f.mu.Lock()
	seen := make(map[string]struct{})
	for name := range f.objects {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := name[len(prefix):]
		if delimiter == "" {
			seen[name] = struct{}{}
			continue
		}
		if idx := strings.Index(rest, delimiter); idx >= 0 {
			seen[prefix+rest[:idx]+delimiter] = struct{}{}
		}
	}
	f.mu.Unlock()

	prefixes := make([]string, 0, len(seen))
	for p := range seen {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	_ = json.NewEncoder(w).Encode(map[string]any{"prefixes": prefixes})
}
