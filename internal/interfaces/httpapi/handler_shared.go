package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fplstack/insights/internal/usecase"
)

func parseOptionalFloat(values url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", usecase.ErrInvalidInput, key)
	}
	return &v, nil
}

func parseOptionalInt(values url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, key)
	}
	return &v, nil
}

func parseIntWithDefault(values url.Values, key string, fallback int) (int, error) {
	v, err := parseOptionalInt(values, key)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return fallback, nil
	}
	return *v, nil
}

func parseBoolFlag(values url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", usecase.ErrInvalidInput, key)
	}
	return v, nil
}

// parseIntList parses a comma-separated list of ids, e.g. "10,233,145".
func parseIntList(values url.Values, key string) ([]int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be comma-separated integers", usecase.ErrInvalidInput, key)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseStringList parses a comma-separated list of names, dropping blanks.
func parseStringList(values url.Values, key string) []string {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func parsePathInt(raw, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", usecase.ErrInvalidInput, name)
	}
	return v, nil
}
