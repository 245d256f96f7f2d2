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

import (
	"fmt"
	"sort"
)

// Defaults for monitor fields not derived from the host.
const (
	DefaultType          = "http"
	DefaultInterval      = 60
	DefaultRetryInterval = 60
	DefaultMaxRetries    = 3
)

// Renderer renders pre-compiled named templates against a context.
// *templating.TemplateEngine implements it.
type Renderer interface {
	HasTemplate(name string) bool
	Render(name string, context map[string]interface{}) (string, error)
}

// MonitorDefaults holds the monitor fields shared by every entity.
type MonitorDefaults struct {
	Type          string
	Interval      int
	RetryInterval int
	MaxRetries    *int

	// Extra holds additional entity fields. String values are rendered as
	// templates. Extra fields cannot replace name, url or parent_name.
	Extra map[string]interface{}
}

// WithDefaults returns a copy with zero values replaced by package defaults.
func (d MonitorDefaults) WithDefaults() MonitorDefaults {
	if d.Type == "" {
		d.Type = DefaultType
	}
	if d.Interval == 0 {
		d.Interval = DefaultInterval
	}
	if d.RetryInterval == 0 {
		d.RetryInterval = DefaultRetryInterval
	}
	if d.MaxRetries == nil {
		maxRetries := DefaultMaxRetries
		d.MaxRetries = &maxRetries
	}
	return d
}

// Factory turns drafts into rendered entities.
type Factory struct {
	renderer Renderer
	defaults MonitorDefaults
}

// NewFactory creates a Factory rendering fields with renderer.
func NewFactory(renderer Renderer, defaults MonitorDefaults) *Factory {
	return &Factory{
		renderer: renderer,
		defaults: defaults.WithDefaults(),
	}
}

// Create assembles the entity for a draft and renders its string fields.
//
// The template context contains host, url, id and name. A rendering failure
// in any field fails the whole draft with a *BuildError.
func (f *Factory) Create(d Draft) (Entity, error) {
	value := f.value(d)
	context := Context(d)

	keys := make([]string, 0, len(value))
	for key := range value {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entity := make(Entity, len(value))
	for _, key := range keys {
		rendered, err := f.render(key, value[key], context)
		if err != nil {
			return nil, &BuildError{ID: d.ID, Host: d.Host, Field: key, Cause: err}
		}
		entity[key] = rendered
	}

	return entity, nil
}

// Context returns the template context for a draft.
func Context(d Draft) map[string]interface{} {
	return map[string]interface{}{
		"host": d.Host,
		"url":  d.URL,
		"id":   d.ID,
		"name": d.Name,
	}
}

// value builds the unrendered field map: defaults, then extra fields, then
// the fields derived from the draft.
func (f *Factory) value(d Draft) map[string]interface{} {
	value := map[string]interface{}{
		FieldType:          f.defaults.Type,
		FieldInterval:      f.defaults.Interval,
		FieldRetryInterval: f.defaults.RetryInterval,
		FieldMaxRetries:    *f.defaults.MaxRetries,
	}

	for key, v := range f.defaults.Extra {
		value[key] = v
	}

	value[FieldName] = d.Name
	value[FieldURL] = d.URL
	if d.GroupRef != "" {
		value[FieldParentName] = d.GroupRef
	} else {
		delete(value, FieldParentName)
	}

	return value
}

// render renders strings that have a template registered under their field
// path and recurses into maps and lists; other values are returned unchanged.
func (f *Factory) render(field string, v interface{}, context map[string]interface{}) (interface{}, error) {
	switch typed := v.(type) {
	case string:
		if !f.renderer.HasTemplate(field) {
			return typed, nil
		}
		return f.renderer.Render(field, context)

	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for key, item := range typed {
			rendered, err := f.render(field+"."+key, item, context)
			if err != nil {
				return nil, err
			}
			out[key] = rendered
		}
		return out, nil

	case []interface{}:
		out := make([]interface{}, 0, len(typed))
		for i, item := range typed {
			rendered, err := f.render(indexPath(field, i), item, context)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered)
		}
		return out, nil

	default:
		return v, nil
	}
}

// Templates returns the named templates a Renderer must hold for entities
// built with prefix and defaults. The monitor type and every string reachable
// from the extra fields are keyed by their field path ("description",
// "headers.Host", "accepted_statuscodes[1]"). A non-empty prefix registers
// the name field as the prefix followed by the host. The url is derived from
// the host alone and never templated.
func Templates(prefix string, defaults MonitorDefaults) map[string]string {
	templates := make(map[string]string)
	if defaults.Type != "" {
		templates[FieldType] = defaults.Type
	}
	// Extra fields replace defaults of the same name, as in Factory.value.
	for key, v := range defaults.Extra {
		if isDerivedField(key) {
			continue
		}
		collectTemplates(templates, key, v)
	}
	if prefix != "" {
		templates[FieldName] = prefix + "{{ host }}"
	}
	return templates
}

func collectTemplates(templates map[string]string, field string, v interface{}) {
	switch typed := v.(type) {
	case string:
		templates[field] = typed
	case map[string]interface{}:
		for key, item := range typed {
			collectTemplates(templates, field+"."+key, item)
		}
	case []interface{}:
		for i, item := range typed {
			collectTemplates(templates, indexPath(field, i), item)
		}
	}
}

func indexPath(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}

func isDerivedField(key string) bool {
	return key == FieldName || key == FieldURL || key == FieldParentName
}
