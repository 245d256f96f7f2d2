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
	"sort"

	"github.com/nikolalohinski/gonja/v2/builtins"
	"github.com/nikolalohinski/gonja/v2/config"
	"github.com/nikolalohinski/gonja/v2/exec"
)

// GlobalFunc is a custom global function that can be called from templates.
// It receives variadic arguments and returns a result or an error.
//
// Example:
//
//	func upper(args ...interface{}) (interface{}, error) {
//	    if len(args) != 1 {
//	        return nil, fmt.Errorf("upper() requires exactly one argument")
//	    }
//	    return strings.ToUpper(fmt.Sprint(args[0])), nil
//	}
type GlobalFunc func(args ...interface{}) (interface{}, error)

// TemplateEngine renders a fixed set of named templates.
//
// Templates are compiled once, when the engine is created; a configuration
// whose templates do not compile never produces an engine. Rendering the
// same template for every host of every cycle reuses the compiled form.
type TemplateEngine struct {
	// engineType is the template engine used for rendering
	engineType EngineType

	// rawTemplates stores the original template strings by name
	rawTemplates map[string]string

	// compiledTemplates stores pre-compiled templates by name
	compiledTemplates map[string]*exec.Template

	cfg         *config.Config
	environment *exec.Environment
}

// New creates a new TemplateEngine with the specified engine type and templates.
// All templates are compiled during initialization. Returns an error if any
// template fails to compile or if the engine type is not supported.
//
// The functions returned by DefaultFunctions are always registered.
func New(engineType EngineType, templates map[string]string) (*TemplateEngine, error) {
	return NewWithFunctions(engineType, templates, nil)
}

// NewWithFunctions creates a new TemplateEngine with additional global functions.
// Custom functions override defaults of the same name.
//
// Example:
//
//	functions := map[string]templating.GlobalFunc{
//	    "upper": upper,
//	}
//	engine, err := templating.NewWithFunctions(templating.EngineTypeGonja, nil, functions)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewWithFunctions(engineType EngineType, templates map[string]string, customFunctions map[string]GlobalFunc) (*TemplateEngine, error) {
	if engineType != EngineTypeGonja {
		return nil, &UnsupportedEngineError{EngineType: engineType}
	}

	engine := &TemplateEngine{
		engineType:        engineType,
		rawTemplates:      make(map[string]string, len(templates)),
		compiledTemplates: make(map[string]*exec.Template, len(templates)),
		cfg:               newConfig(),
		environment:       newEnvironment(customFunctions),
	}

	// Named templates can reference each other via {% include "name" %}
	loader := NewSimpleLoader(templates)

	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		content := templates[name]
		engine.rawTemplates[name] = content

		compiled, err := exec.NewTemplate(name, engine.cfg, loader, engine.environment)
		if err != nil {
			return nil, newCompilationError(name, content, err)
		}

		engine.compiledTemplates[name] = compiled
	}

	return engine, nil
}

// newConfig returns the gonja configuration shared by all templates.
// Monitor fields are single-line values, so blocks strip surrounding whitespace.
func newConfig() *config.Config {
	return &config.Config{
		BlockStartString:    "{%",
		BlockEndString:      "%}",
		VariableStartString: "{{",
		VariableEndString:   "}}",
		CommentStartString:  "{#",
		CommentEndString:    "#}",
		AutoEscape:          false,
		StrictUndefined:     false,
		TrimBlocks:          true,
		LeftStripBlocks:     true,
	}
}

func newEnvironment(customFunctions map[string]GlobalFunc) *exec.Environment {
	functionMap := make(map[string]interface{})
	for name, fn := range DefaultFunctions() {
		functionMap[name] = wrapGlobalFunction(fn)
	}
	for name, fn := range customFunctions {
		functionMap[name] = wrapGlobalFunction(fn)
	}

	return &exec.Environment{
		Filters:           builtins.Filters,
		Tests:             builtins.Tests,
		ControlStructures: builtins.ControlStructures,
		Methods:           builtins.Methods,
		Context:           builtins.GlobalFunctions.Update(exec.NewContext(functionMap)),
	}
}

// Render executes the named template with the provided context and returns the
// rendered output. Returns an error if the template does not exist or if
// rendering fails.
func (e *TemplateEngine) Render(templateName string, context map[string]interface{}) (string, error) {
	template, exists := e.compiledTemplates[templateName]
	if !exists {
		return "", &TemplateNotFoundError{TemplateName: templateName, Available: e.TemplateNames()}
	}

	output, err := template.ExecuteToString(exec.NewContext(context))
	if err != nil {
		return "", &RenderError{TemplateName: templateName, Cause: err}
	}

	return output, nil
}

// EngineType returns the template engine type used by this instance.
func (e *TemplateEngine) EngineType() EngineType {
	return e.engineType
}

// TemplateNames returns the sorted names of all pre-compiled templates.
func (e *TemplateEngine) TemplateNames() []string {
	names := make([]string, 0, len(e.rawTemplates))
	for name := range e.rawTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTemplate returns true if a template with the given name exists.
func (e *TemplateEngine) HasTemplate(templateName string) bool {
	_, exists := e.compiledTemplates[templateName]
	return exists
}

// wrapGlobalFunction wraps a GlobalFunc into a function callable from Gonja templates.
func wrapGlobalFunction(customFunc GlobalFunc) func(_ *exec.Evaluator, params *exec.VarArgs) *exec.Value {
	return func(_ *exec.Evaluator, params *exec.VarArgs) *exec.Value {
		var args []interface{}
		if params != nil && len(params.Args) > 0 {
			for _, arg := range params.Args {
				args = append(args, arg.Interface())
			}
		}

		result, err := customFunc(args...)
		if err != nil {
			// ErrInvalidCall makes the render fail with err's message
			return exec.AsValue(exec.ErrInvalidCall(err))
		}

		return exec.AsValue(result)
	}
}
