// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotConfigured is returned when a provider's API key is not set.
	ErrNotConfigured = errors.New("ai: provider not configured")

	// ErrUnknownModel is returned for model names outside the supported list.
	ErrUnknownModel = errors.New("ai: unknown model")

	// ErrRateLimited marks quota and rate-limit failures (HTTP 429 or
	// RESOURCE_EXHAUSTED).
	ErrRateLimited = errors.New("ai: rate limited")

	// ErrSafetyBlocked marks requests refused by a provider's safety filter.
	ErrSafetyBlocked = errors.New("ai: blocked by safety filter")

	// ErrEmptyResponse is returned when a provider answers without any
	// usable content.
	ErrEmptyResponse = errors.New("ai: empty response")
)

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider Provider
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, truncate(e.Body, 500))
}

// Is lets errors.Is(err, ErrRateLimited) match quota failures.
func (e *APIError) Is(target error) bool {
	if target == ErrRateLimited {
		return e.Status == http.StatusTooManyRequests || strings.Contains(e.Body, "RESOURCE_EXHAUSTED")
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
