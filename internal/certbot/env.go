// Package certbot reads the invocation context that certbot passes to
// manual auth and cleanup hooks through the environment.
package certbot

import (
	"fmt"
	"os"
)

// Environment variables set by certbot for manual hooks
const (
	// EnvDomain is the domain being validated
	EnvDomain = "CERTBOT_DOMAIN"

	// EnvValidation is the TXT value certbot expects to find in DNS
	EnvValidation = "CERTBOT_VALIDATION"

	// EnvAuthOutput carries the auth hook's stdout to the cleanup hook.
	// Certbot sets it only on the cleanup call, so its presence selects
	// cleanup mode.
	EnvAuthOutput = "CERTBOT_AUTH_OUTPUT"
)

// Invocation is the immutable per-call context of one hook run
type Invocation struct {
	Domain     string
	Validation string
	Cleanup    bool
}

// FromEnv builds the invocation context from certbot's environment variables.
// Both CERTBOT_DOMAIN and CERTBOT_VALIDATION must be set.
func FromEnv() (*Invocation, error) {
	domain := os.Getenv(EnvDomain)
	if domain == "" {
		return nil, fmt.Errorf("%s is not set (hook must be invoked by certbot)", EnvDomain)
	}

	validation := os.Getenv(EnvValidation)
	if validation == "" {
		return nil, fmt.Errorf("%s is not set (hook must be invoked by certbot)", EnvValidation)
	}

	// Presence alone signals cleanup, the value may be empty
	_, cleanup := os.LookupEnv(EnvAuthOutput)

	return &Invocation{
		Domain:     domain,
		Validation: validation,
		Cleanup:    cleanup,
	}, nil
}

// ChallengeRecord returns the TXT record name for the DNS-01 challenge
func (i *Invocation) ChallengeRecord() string {
	return "_acme-challenge." + i.Domain
}
