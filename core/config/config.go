package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider holds the connection settings for one upstream provider. Zero
// fields mean "not set" and defer to the next resolution layer.
type Provider struct {
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	Organization string `yaml:"organization"`
	APIVersion   string `yaml:"api_version"`
}

// File is the on-disk configuration: a map of provider name to settings.
//
//	providers:
//	  openai:
//	    base_url: https://api.openai.com/v1
//	    api_key: sk-...
type File struct {
	Providers map[string]Provider `yaml:"providers"`
}

// Load reads a YAML configuration file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &file, nil
}

// Resolve merges settings for the named provider, field by field, in priority
// order: explicit argument, configuration file, environment variable, and
// finally a default derived from the provider name. The first present value
// wins. Environment names derive from the provider name: OPENAI_API_KEY,
// OPENAI_BASE_URL, OPENAI_ORGANIZATION, OPENAI_API_VERSION.
func Resolve(name string, explicit Provider, file *File) Provider {
	var fromFile Provider
	if file != nil {
		fromFile = file.Providers[name]
	}

	prefix := envPrefix(name)
	resolved := Provider{
		BaseURL:      firstNonEmpty(explicit.BaseURL, fromFile.BaseURL, os.Getenv(prefix+"_BASE_URL")),
		APIKey:       firstNonEmpty(explicit.APIKey, fromFile.APIKey, os.Getenv(prefix+"_API_KEY")),
		Organization: firstNonEmpty(explicit.Organization, fromFile.Organization, os.Getenv(prefix+"_ORGANIZATION")),
		APIVersion:   firstNonEmpty(explicit.APIVersion, fromFile.APIVersion, os.Getenv(prefix+"_API_VERSION")),
	}

	if resolved.BaseURL == "" {
		resolved.BaseURL = defaultBaseURL(name)
	}
	return resolved
}

// envPrefix maps a provider name onto the environment variable namespace:
// uppercased, with non-alphanumeric runes collapsed to underscores.
func envPrefix(name string) string {
	var builder strings.Builder
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		default:
			builder.WriteByte('_')
		}
	}
	return builder.String()
}

// defaultBaseURL derives the conventional API endpoint from the provider name.
func defaultBaseURL(name string) string {
	return "https://api." + strings.ToLower(name) + ".com/v1"
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
