// Copyright 2025 Tom Barlow
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

package shared

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/tombee/conductor-ntfy/internal/operation"
	pkgerrors "github.com/tombee/conductor-ntfy/pkg/errors"
)

// JSONResponse is the base envelope for all JSON output
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// JSONResult wraps an operation result for --json output.
type JSONResult struct {
	JSONResponse
	StatusCode int                    `json:"status_code,omitempty"`
	Response   interface{}            `json:"response,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// JSONError represents a structured error with code, message and suggestion
type JSONError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	StatusCode    int    `json:"status_code,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Suggestion    string `json:"suggestion,omitempty"`
}

// EmitJSON writes response to w as indented JSON.
func EmitJSON(w io.Writer, response interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// EmitJSONResult writes a successful operation result.
func EmitJSONResult(w io.Writer, command string, result *operation.Result) error {
	return EmitJSON(w, JSONResult{
		JSONResponse: JSONResponse{Version: "1.0", Command: command, Success: true},
		StatusCode:   result.StatusCode,
		Response:     result.Response,
		Metadata:     result.Metadata,
	})
}

// EmitJSONError writes a failed command response built from err.
func EmitJSONError(w io.Writer, command string, err error) error {
	type errorResponse struct {
		JSONResponse
		Errors []JSONError `json:"errors"`
	}

	return EmitJSON(w, errorResponse{
		JSONResponse: JSONResponse{Version: "1.0", Command: command, Success: false},
		Errors:       []JSONError{toJSONError(err)},
	})
}

func toJSONError(err error) JSONError {
	je := JSONError{Code: "error", Message: err.Error()}

	var opErr *operation.Error
	if errors.As(err, &opErr) {
		je.Code = string(opErr.Type)
		je.Message = opErr.UserMessage()
		je.StatusCode = opErr.StatusCode
		je.CorrelationID = opErr.CorrelationID
		je.Suggestion = opErr.Suggestion()
		je.Message = MaskSecrets(je.Message)
		return je
	}

	var cfgErr *pkgerrors.ConfigError
	if errors.As(err, &cfgErr) {
		je.Code = "config_error"
	}
	var valErr *pkgerrors.ValidationError
	if errors.As(err, &valErr) {
		je.Code = "validation_error"
		je.Suggestion = valErr.Suggestion()
	}
	je.Message = MaskSecrets(je.Message)
	return je
}
