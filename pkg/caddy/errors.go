// Copyright 2025 Philipp Hossner
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

package caddy

import "fmt"

// FetchError is returned when the config document could not be retrieved,
// either because the request failed or because the server answered with a
// non-success status.
type FetchError struct {
	// URL is the endpoint that was queried.
	URL string

	// StatusCode is the HTTP status code, zero if no response was received.
	StatusCode int

	// Status is the HTTP status line, empty if no response was received.
	Status string

	// Cause is the underlying transport error, if any.
	Cause error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("caddy API at %s returned error status: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("failed to fetch caddy config from %s: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// DecodeError is returned when the response body is not a valid config document.
type DecodeError struct {
	URL   string
	Cause error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse caddy config from %s: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}
