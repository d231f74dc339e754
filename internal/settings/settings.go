// Package settings resolves platform credentials and engine defaults from
// the process environment, with a .env file in the working directory as a
// fallback for anything the environment leaves unset.
package settings

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Defaults mirror the hosted platform's public endpoint.
const (
	DefaultBaseURL = "https://api.vapi.ai"
	DefaultTimeout = 30 * time.Second
)

// Settings holds everything the transport client needs.
type Settings struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	OrgID   string
}

// ErrMissingAPIKey is returned when no API key can be resolved.
var ErrMissingAPIKey = errors.New(
	"AGENTCTL_API_KEY not set; export it or add it to a .env file")

// Load resolves settings from the environment. The API key is required;
// everything else has defaults.
func Load() (*Settings, error) {
	fileEnv := readDotenv(".env")
	get := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileEnv[key]
	}

	s := &Settings{
		APIKey:  get("AGENTCTL_API_KEY"),
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
		OrgID:   get("AGENTCTL_ORG_ID"),
	}
	if s.APIKey == "" {
		// Legacy name kept for older deployments.
		s.APIKey = get("VAPI_API_KEY")
	}
	if url := get("AGENTCTL_BASE_URL"); url != "" {
		s.BaseURL = url
	}
	if raw := get("AGENTCTL_TIMEOUT"); raw != "" {
		var secs int
		if _, err := fmt.Sscanf(raw, "%d", &secs); err == nil && secs > 0 {
			s.Timeout = time.Duration(secs) * time.Second
		}
	}
	if s.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return s, nil
}

// readDotenv parses KEY=VALUE lines. Missing or unreadable files yield an
// empty map; a .env file is always optional.
func readDotenv(path string) map[string]string {
	vars := map[string]string{}
	f, err := os.Open(path)
	if err != nil {
		return vars
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key != "" {
			vars[key] = value
		}
	}
	return vars
}
