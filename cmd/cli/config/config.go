package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIURL = "http://localhost:8080"
	tokenFileName = ".geo_token"
)

// APIURL returns the base URL for the geo catalog API.
// It can be overridden with the GEO_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("GEO_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}

// Token returns the bearer token from GEO_TOKEN or, failing that, the saved token
// file. An empty result means requests go out anonymous.
func Token() string {
	if v := os.Getenv("GEO_TOKEN"); v != "" {
		return v
	}
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveToken stores token for later commands, readable only by the current user.
func SaveToken(token string) error {
	return os.WriteFile(tokenPath(), []byte(token), 0600)
}

// ClearToken removes the saved token. A missing file is not an error.
func ClearToken() error {
	err := os.Remove(tokenPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func tokenPath() string {
	if v := os.Getenv("GEO_TOKEN_FILE"); v != "" {
		return v
	}
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, tokenFileName)
}
