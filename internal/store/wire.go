package store

import (
	"errors"
	"fmt"
)

// Wire format shared by internal/server and internal/store/remote.

type SelectRequest struct {
	Filter Filter  `json:"filter,omitempty"`
	Order  []Order `json:"order,omitempty"`
}

type SelectResponse struct {
	Rows []Row `json:"rows"`
}

type InsertRequest struct {
	Row Row `json:"row"`
}

type InsertResponse struct {
	Row Row `json:"row"`
}

type UpdateRequest struct {
	Filter Filter `json:"filter"`
	Patch  Row    `json:"patch"`
}

type DeleteRequest struct {
	Filter Filter `json:"filter"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var errorCodes = []struct {
	code string
	err  error
}{
	{"not_found", ErrNotFound},
	{"unknown_table", ErrUnknownTable},
	{"unknown_column", ErrUnknownColumn},
	{"invalid_filter", ErrInvalidFilter},
}

// ErrorCode maps a store sentinel to its wire code, or "".
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ""
}

// ErrorFromWire rebuilds an error that matches the sentinel named by code.
func ErrorFromWire(resp ErrorResponse) error {
	for _, ec := range errorCodes {
		if ec.code == resp.Code {
			return wireError{msg: resp.Error, sentinel: ec.err}
		}
	}
	return errors.New(resp.Error)
}

type wireError struct {
	msg      string
	sentinel error
}

func (e wireError) Error() string {
	if e.msg == "" {
		return e.sentinel.Error()
	}
	return e.msg
}

func (e wireError) Unwrap() error { return e.sentinel }

// StatusError is a non-2xx reply without a store code (auth, server errors).
type StatusError struct {
	Status  int
	Message string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}
