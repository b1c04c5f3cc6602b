// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package lazy

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// timestampSeed configures the timestamp resolver
type timestampSeed struct {
	// Format is a Go reference-time layout, defaults to RFC 3339
	Format string `json:"format,omitempty"`
	// Prefix is prepended verbatim to the formatted time
	Prefix string `json:"prefix,omitempty"`
}

// timestamp derives a timestamped string from its seed
//
// The seed may be a string (used as the prefix) or a mapping with format and
// prefix keys
func timestamp(_ context.Context, seed any) (any, error) {
	cfg := timestampSeed{Format: time.RFC3339}

	switch s := seed.(type) {
	case nil:
	case string:
		cfg.Prefix = s
	default:
		if err := decodeSeed(seed, &cfg); err != nil {
			return nil, err
		}
		if cfg.Format == "" {
			cfg.Format = time.RFC3339
		}
	}

	return cfg.Prefix + time.Now().Format(cfg.Format), nil
}

// uuidSeed configures the uuid resolver
type uuidSeed struct {
	// Prefix is prepended verbatim to the generated identifier
	Prefix string `json:"prefix,omitempty"`
}

// newUUID derives a unique identifier, optionally prefixed
func newUUID(_ context.Context, seed any) (any, error) {
	cfg := uuidSeed{}

	switch s := seed.(type) {
	case nil:
	case string:
		cfg.Prefix = s
	default:
		if err := decodeSeed(seed, &cfg); err != nil {
			return nil, err
		}
	}

	return cfg.Prefix + uuid.NewString(), nil
}

// envLookup reads an environment variable named by the seed
func envLookup(_ context.Context, seed any) (any, error) {
	name, err := cast.ToStringE(seed)
	if err != nil {
		return nil, fmt.Errorf("env seed must be a string: %w", err)
	}

	value, ok := os.LookupEnv(name)
	if !ok {
		return nil, fmt.Errorf("environment variable %q is not set", name)
	}
	return value, nil
}

func decodeSeed(seed, result any) error {
	config := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           result,
	}
	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return err
	}
	if err := decoder.Decode(seed); err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}
	return nil
}
