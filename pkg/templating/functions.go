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
	"errors"
	"fmt"
)

// DefaultFunctions returns the global functions available in every template.
//
//   - fail(message): aborts rendering with message. Useful to reject
//     hosts that must never become monitors:
//     {% if host == "intranet.example.com" %}{{ fail("internal host") }}{% endif %}
func DefaultFunctions() map[string]GlobalFunc {
	return map[string]GlobalFunc{
		"fail": Fail,
	}
}

// Fail implements the fail() template function.
func Fail(args ...interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("fail() requires exactly one string argument, got %d", len(args))
	}
	message, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("fail() argument must be a string, got %T", args[0])
	}
	return nil, errors.New(message)
}
