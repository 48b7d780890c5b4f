package testsupport

import (
	"path/filepath"
	"testing"

	"veopm/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Vault.Bucket = "test-bucket"
	cfgVal.Generation.APIKey = "test"

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBucket overrides the vault bucket on the test config.
func WithBucket(bucket string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Vault.Bucket = bucket
	}
}

// WithVaultEndpoints points the vault client at test servers.
func WithVaultEndpoints(apiBase, uploadBase string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Vault.APIBase = apiBase
		b.cfg.Vault.UploadBase = uploadBase
	}
}

// WithGenerationEndpoint points the generation client at a test server.
func WithGenerationEndpoint(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Generation.BaseURL = baseURL
	}
}
