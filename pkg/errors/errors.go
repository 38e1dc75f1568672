// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeGraphQueryFault          Code = "graph.query.fault"
	CodeGraphTransportFailure    Code = "graph.transport.failure"
	CodeGraphResponseInvalid     Code = "graph.response.invalid"
	CodeGraphUpdateFailure       Code = "graph.update.failure"
	CodeGraphLoadFailure         Code = "graph.load.failure"
	CodeGraphServiceStartFailure Code = "graph.service.start.failure"
	CodeGraphServiceStopFailure  Code = "graph.service.stop.failure"
	CodeGraphServiceNotFound     Code = "graph.service.not_found"

	CodeProviderRequestInvalid     Code = "provider.request.invalid"
	CodeProviderResponseInvalid    Code = "provider.response.invalid"
	CodeProviderUpstreamFailure    Code = "provider.upstream.failure"
	CodeProviderBackendUnsupported Code = "provider.backend.unsupported"

	CodeAskInputInvalid        Code = "ask.input.invalid"
	CodeAskSchemaSampleFailure Code = "ask.schema.sample.failure"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeStoreDatabaseFailure Code = "store.database.failure"
	CodeStoreRecordNotFound  Code = "store.record.get.not_found"
	CodeStoreInvalidInput    Code = "store.invalid_input"

	CodeIngestDownloadFailure  Code = "ingest.download.failure"
	CodeIngestTransformFailure Code = "ingest.transform.failure"
	CodeIngestLoadFailure      Code = "ingest.load.failure"

	CodeSecretNotFound       Code = "secrets.key.not_found"
	CodeSecretInvalidInput   Code = "secrets.input.invalid"
	CodeSecretBackendFailure Code = "secrets.backend.failure"

	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerShutdownFailure Code = "server.shutdown.failure"
	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerEntityNotFound  Code = "server.entity.not_found"

	CodeCLISetupFailure Code = "cli.setup.failure"
	CodeCLIInputInvalid Code = "cli.input.invalid"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldSessionID(value string) Attr {
	return Field("session_id", value)
}

func FieldAttempt(value int) Attr {
	return Field("attempt", value)
}

func FieldQuery(value string) Attr {
	return Field("query", value)
}

func FieldDataset(value string) Attr {
	return Field("dataset", value)
}

func FieldBackend(value string) Attr {
	return Field("backend", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

// IsQueryFault reports whether err is a store-level query rejection — the
// retryable condition the ask loop folds into the next attempt's context.
func IsQueryFault(err error) bool {
	return HasCode(err, CodeGraphQueryFault)
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsUpstreamFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
