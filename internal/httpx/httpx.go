// Package httpx provides helper functions for creating HTTP responses.
package httpx

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
)

// envelope is the response wrapper every endpoint returns.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON creates a JSON HTTP response with the given status code and value.
func JSON(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(b),
	}, nil
}

// OK wraps v in a success envelope with the given status code.
func OK(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	return JSON(status, envelope{Success: true, Data: v})
}

// Error creates a JSON HTTP error response with the given status code, code and message.
func Error(status int, code, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return JSON(status, envelope{Success: false, Error: &errorBody{Code: code, Message: msg}})
}
