// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// DefaultCredentialEnv is the environment variable read by EnvCredential
// when no names are given.
const DefaultCredentialEnv = "OPENAI_API_KEY"

// CredentialSource yields the current API credential. It returns an error
// wrapping ErrMissingCredential when none is available.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func(ctx context.Context) (string, error)

// Credential implements CredentialSource.
func (f CredentialFunc) Credential(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticCredential returns a source that always yields key.
func StaticCredential(key string) CredentialSource {
	return CredentialFunc(func(context.Context) (string, error) {
		key := strings.TrimSpace(key)
		if key == "" {
			return "", ErrMissingCredential
		}
		return key, nil
	})
}

// EnvCredential reads the first non-empty variable among names.
func EnvCredential(names ...string) CredentialSource {
	if len(names) == 0 {
		names = []string{DefaultCredentialEnv}
	}
	return CredentialFunc(func(context.Context) (string, error) {
		for _, name := range names {
			if v := strings.TrimSpace(os.Getenv(name)); v != "" {
				return v, nil
			}
		}
		return "", fmt.Errorf("%w: set %s", ErrMissingCredential, strings.Join(names, " or "))
	})
}

// ChainCredentials tries each source in order and returns the first
// credential found. Errors other than a missing credential stop the chain.
func ChainCredentials(sources ...CredentialSource) CredentialSource {
	return CredentialFunc(func(ctx context.Context) (string, error) {
		for _, src := range sources {
			if src == nil {
				continue
			}
			key, err := src.Credential(ctx)
			if err == nil {
				return key, nil
			}
			if !IsConfigError(err) {
				return "", err
			}
		}
		return "", ErrMissingCredential
	})
}
