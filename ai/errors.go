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

import "errors"

var (
	// ErrMissingCredential indicates no API credential is configured.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrInvalidCredential indicates the service rejected the credential.
	ErrInvalidCredential = errors.New("invalid API credential")

	// ErrMalformedResponse indicates an answer that could not be parsed.
	ErrMalformedResponse = errors.New("malformed categorization response")

	// ErrNoTaxonomy indicates a request without a taxonomy.
	ErrNoTaxonomy = errors.New("request has no taxonomy")
)

// IsConfigError reports whether err is a credential/configuration failure
// that will not succeed on retry.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingCredential) || errors.Is(err, ErrInvalidCredential)
}
