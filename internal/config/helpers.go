package config

import (
	"finpipe/pkg/provider"
)

// MustLoadProvider loads etc/provider.yaml from the project root and panics
// on error. It isolates the provider config so tests and one-shot tools do
// not need the full app config.
func MustLoadProvider() *provider.Config {
	return provider.MustLoad()
}

// MustBuildProviders loads provider config from the default path and builds
// provider instances; returns the map and default provider name.
func MustBuildProviders() (map[string]provider.Provider, string) {
	cfg := MustLoadProvider()
	providers, err := cfg.BuildProviders()
	if err != nil {
		panic(err)
	}
	return providers, cfg.Default
}
