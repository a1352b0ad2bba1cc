// Package jq applies jq expressions to integration responses
// (the response_transform input).
package jq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/itchyny/gojq"
)

const (
	// DefaultTimeout bounds a single transform.
	DefaultTimeout = 1 * time.Second

	// DefaultMaxInputSize is the largest JSON input accepted (1MB). ntfy
	// responses are small; anything larger is almost certainly a mistake.
	DefaultMaxInputSize = 1 << 20
)

// Transformer compiles and runs jq expressions.
type Transformer struct {
	timeout      time.Duration
	maxInputSize int
}

// NewTransformer creates a Transformer. Zero values select the defaults.
func NewTransformer(timeout time.Duration, maxInputSize int) *Transformer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxInputSize <= 0 {
		maxInputSize = DefaultMaxInputSize
	}
	return &Transformer{timeout: timeout, maxInputSize: maxInputSize}
}

// Validate reports whether expression parses and compiles.
func (t *Transformer) Validate(expression string) error {
	_, err := compile(expression)
	return err
}

// Apply runs expression against data. An empty expression returns data
// unchanged. A single result is returned as-is, several results as a slice,
// and no results as nil.
func (t *Transformer) Apply(ctx context.Context, expression string, data interface{}) (interface{}, error) {
	if expression == "" {
		return data, nil
	}

	code, err := compile(expression)
	if err != nil {
		return nil, err
	}

	input, err := t.normalize(data)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var results []interface{}
	iter := code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("transform timed out after %v", t.timeout)
			}
			return nil, fmt.Errorf("transform failed: %w", err)
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed: %w", err)
	}
	return code, nil
}

// normalize converts arbitrary Go values (typed structs included) into the
// map/slice/float64 shapes gojq operates on.
func (t *Transformer) normalize(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transform input: %w", err)
	}
	if len(raw) > t.maxInputSize {
		return nil, fmt.Errorf("transform input (%d bytes) exceeds maximum (%d bytes)", len(raw), t.maxInputSize)
	}

	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode transform input: %w", err)
	}
	return out, nil
}
