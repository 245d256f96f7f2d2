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

package templating

import (
	"fmt"
	"strings"
)

// maxSnippet bounds the template source kept in a CompilationError.
const maxSnippet = 200

// CompilationError reports a template that does not parse. For monitor
// templates TemplateName is the field path, e.g. "description" or
// "headers.Host".
type CompilationError struct {
	TemplateName string

	// Snippet is the start of the offending template source.
	Snippet string

	Cause error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("template %q does not compile: %v", e.TemplateName, e.Cause)
}

func (e *CompilationError) Unwrap() error {
	return e.Cause
}

func newCompilationError(name, content string, cause error) *CompilationError {
	if len(content) > maxSnippet {
		content = content[:maxSnippet] + "..."
	}
	return &CompilationError{TemplateName: name, Snippet: content, Cause: cause}
}

// RenderError reports a template that compiled but failed while rendering
// for one context, typically an unknown filter or a fail() call.
type RenderError struct {
	TemplateName string
	Cause        error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render template %q: %v", e.TemplateName, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// TemplateNotFoundError is returned by Render for a name the engine was not
// created with.
type TemplateNotFoundError struct {
	TemplateName string
	Available    []string
}

func (e *TemplateNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("template %q not found (engine has no templates)", e.TemplateName)
	}
	return fmt.Sprintf("template %q not found (available: %s)", e.TemplateName, strings.Join(e.Available, ", "))
}

// UnsupportedEngineError is returned for an unknown EngineType.
type UnsupportedEngineError struct {
	EngineType EngineType
}

func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("unsupported template engine type: %s", e.EngineType)
}
