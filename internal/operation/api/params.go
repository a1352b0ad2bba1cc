package api

import (
	"fmt"
	"strconv"
)

// Parameters holds user-entered operation inputs and reads them by name.
type Parameters map[string]interface{}

// Get returns the raw value of a parameter.
func (p Parameters) Get(name string) (interface{}, bool) {
	v, ok := p[name]
	return v, ok
}

// String returns a parameter as a string. Missing and nil values are "";
// scalars are formatted with fmt.
func (p Parameters) String(name string) string {
	v, ok := p[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns a parameter as a bool. Strings are parsed with
// strconv.ParseBool; anything else that is not a bool returns an error.
func (p Parameters) Bool(name string) (bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		if b == "" {
			return false, nil
		}
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("parameter %q: %w", name, err)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("parameter %q must be a boolean, got %T", name, v)
	}
}

// ApplyDefaults returns a copy of inputs with schema defaults filled in for
// parameters that are missing and currently displayed.
func ApplyDefaults(schema *OperationSchema, inputs map[string]interface{}) Parameters {
	params := make(Parameters, len(inputs))
	for k, v := range inputs {
		params[k] = v
	}
	if schema == nil {
		return params
	}

	// Defaults can make later parameters visible, so resolve in declaration order.
	for _, info := range schema.Parameters {
		if _, ok := params[info.Name]; ok || info.Default == nil {
			continue
		}
		if !params.Displayed(info) {
			continue
		}
		params[info.Name] = info.Default
	}
	return params
}

// Displayed reports whether info's DisplayWhen conditions hold for p.
func (p Parameters) Displayed(info ParameterInfo) bool {
	for name, allowed := range info.DisplayWhen {
		v, ok := p[name]
		if !ok {
			return false
		}
		matched := false
		for _, a := range allowed {
			if fmt.Sprint(a) == fmt.Sprint(v) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
