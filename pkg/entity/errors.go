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

package entity

import "fmt"

// BuildError reports that the entity for one host could not be created.
type BuildError struct {
	// ID is the id of the draft that failed.
	ID string

	// Host is the host the draft was derived from.
	Host string

	// Field is the entity field whose rendering failed, if known.
	Field string

	// Cause is the underlying error, usually a templating error.
	Cause error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("failed to create entity %q for host %q: field %q: %v", e.ID, e.Host, e.Field, e.Cause)
	}
	return fmt.Sprintf("failed to create entity %q for host %q: %v", e.ID, e.Host, e.Cause)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *BuildError) Unwrap() error {
	return e.Cause
}
