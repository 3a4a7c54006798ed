package api

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"fieldsync/internal/config"
)

// StaticToken is a TokenProvider backed by a fixed string.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	token := strings.TrimSpace(string(t))
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

// FileToken reads the session token from the first line of a file on every
// call, so an external login flow can rotate it without restarting.
type FileToken string

func (t FileToken) Token(ctx context.Context) (string, error) {
	file, err := os.Open(string(t))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read token file: %w", err)
		}
		return "", ErrNotAuthenticated
	}
	token := strings.TrimSpace(scanner.Text())
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

// TokenProviderFromConfig picks the token source the config describes.
func TokenProviderFromConfig(cfg *config.Config) TokenProvider {
	if strings.TrimSpace(cfg.API.TokenPath) != "" {
		return FileToken(cfg.API.TokenPath)
	}
	return StaticToken(cfg.API.Token)
}
