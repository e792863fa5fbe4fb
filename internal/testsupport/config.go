package testsupport

import (
	"path/filepath"
	"testing"

	"nucliasync/internal/config"
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
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Nuclia.Zone = "europe-1"
	cfgVal.Nuclia.KBID = "test-kb"
	cfgVal.Nuclia.Token = "test-token"

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithZone overrides the Nuclia zone on the test config.
func WithZone(zone string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Nuclia.Zone = zone
	}
}

// WithContentTypes overrides the indexable content type allowlist.
func WithContentTypes(types ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Indexing.ContentTypes = types
	}
}

// WithTaxonomy registers a taxonomy mapping on the test config.
func WithTaxonomy(taxonomy string, mapping config.TaxonomyMapping) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Labels.Taxonomies == nil {
			b.cfg.Labels.Taxonomies = make(map[string]config.TaxonomyMapping)
		}
		b.cfg.Labels.Taxonomies[taxonomy] = mapping
	}
}
