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
	"io"
	"strings"

	"github.com/nikolalohinski/gonja/v2/loaders"
)

// fieldLoader serves templates from a map keyed by field path. Gonja's
// MemoryLoader expects '/'-rooted paths, which field names like
// "headers.Host" are not.
type fieldLoader map[string]string

// NewSimpleLoader returns a loader over templates. Names are used verbatim.
func NewSimpleLoader(templates map[string]string) loaders.Loader {
	return fieldLoader(templates)
}

func (l fieldLoader) Read(path string) (io.Reader, error) {
	content, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", path)
	}
	return strings.NewReader(content), nil
}

func (l fieldLoader) Resolve(path string) (string, error) {
	if _, ok := l[path]; !ok {
		return "", fmt.Errorf("template not found: %s", path)
	}
	return path, nil
}

// Inherit returns l; there is no directory structure to resolve against.
func (l fieldLoader) Inherit(string) (loaders.Loader, error) {
	return l, nil
}
