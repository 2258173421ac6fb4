package shopify

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultVendorError
	ResultTransportError
)

func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultVendorError:
		return "vendor_error"
	case ResultTransportError:
		return "transport_error"
	}
	return "unknown"
}

// Result is a decoded Admin API response. Exactly one of Data (ResultOK),
// UserErrors/GraphQLErrors (ResultVendorError) or Status/Message
// (ResultTransportError) is meaningful.
type Result[T any] struct {
	Kind          ResultKind
	Data          T
	UserErrors    []UserError
	GraphQLErrors []GraphQLError
	Status        int
	Message       string

	// Raw is the vendor response body, relayed verbatim by the proxy routes.
	Raw json.RawMessage

	// ProcessedInput is a corrected collection input offered for a single
	// retry. Only collection creates set it.
	ProcessedInput *CollectionInput
}

func (r Result[T]) OK() bool {
	return r.Kind == ResultOK
}

// ErrorMessage renders the failure the way it is shown to operators: user
// errors as "field: message" lines, GraphQL errors by message with their
// coercion problems appended.
func (r Result[T]) ErrorMessage() string {
	switch r.Kind {
	case ResultVendorError:
		var lines []string
		for _, ue := range r.UserErrors {
			lines = append(lines, ue.String())
		}
		for _, ge := range r.GraphQLErrors {
			lines = append(lines, ge.Message)
			if ge.Extensions != nil {
				for _, p := range ge.Extensions.Problems {
					lines = append(lines, p.String())
				}
			}
		}
		return strings.Join(lines, "\n")
	case ResultTransportError:
		if r.Status > 0 {
			return fmt.Sprintf("%s (HTTP %d)", r.Message, r.Status)
		}
		return r.Message
	}
	return ""
}

// FirstErrorMessage returns only the first vendor error, with problems of a
// GraphQL error appended.
func (r Result[T]) FirstErrorMessage() string {
	if r.Kind == ResultVendorError {
		if len(r.UserErrors) > 0 {
			return r.UserErrors[0].String()
		}
		if len(r.GraphQLErrors) > 0 {
			ge := r.GraphQLErrors[0]
			msg := ge.Message
			if ge.Extensions != nil {
				for _, p := range ge.Extensions.Problems {
					msg += "\n" + p.String()
				}
			}
			return msg
		}
	}
	return r.ErrorMessage()
}

// Err converts a non-OK result to an error.
func (r Result[T]) Err() error {
	if r.OK() {
		return nil
	}
	return errors.New(r.ErrorMessage())
}

func transportResult[T any](status int, message string) Result[T] {
	return Result[T]{Kind: ResultTransportError, Status: status, Message: message}
}

// decodeResult classifies a raw response. pick extracts the payload and its
// userErrors from the "data" member.
func decodeResult[T any](raw []byte, status int, err error, pick func(data json.RawMessage) (T, []UserError, error)) Result[T] {
	if err != nil {
		return transportResult[T](status, err.Error())
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return Result[T]{Kind: ResultTransportError, Status: status, Message: http.StatusText(status), Raw: raw}
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return transportResult[T](status, fmt.Sprintf("failed to decode response: %v", err))
	}

	if len(envelope.Errors) > 0 {
		return Result[T]{Kind: ResultVendorError, GraphQLErrors: envelope.Errors, Status: status, Raw: raw}
	}

	data, userErrors, err := pick(envelope.Data)
	if err != nil {
		return transportResult[T](status, fmt.Sprintf("failed to decode response data: %v", err))
	}
	if len(userErrors) > 0 {
		return Result[T]{Kind: ResultVendorError, UserErrors: userErrors, Status: status, Raw: raw}
	}

	return Result[T]{Kind: ResultOK, Data: data, Status: status, Raw: raw}
}
