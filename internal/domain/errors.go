package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type NotFoundError struct {
	Resource string
	Msg      string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("No %s found with that ID", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError carries one or more client-facing messages.
type ValidationError struct {
	Field    string
	Msg      string
	Messages []string
	Err      error
}

func (e ValidationError) Error() string {
	if len(e.Messages) > 0 {
		return "Invalid input data. " + strings.Join(e.Messages, ". ")
	}
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// ConflictError is returned for unique-key violations.
type ConflictError struct {
	Resource string
	Value    string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Value != "":
		return fmt.Sprintf("Duplicate field value: %s. Please use another value!", e.Value)
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// AuthError covers both unauthenticated (401) and forbidden (403) outcomes.
type AuthError struct {
	Forbidden bool
	Msg       string
	Err       error
}

func (e AuthError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Forbidden {
		return "You do not have permission to perform this action"
	}
	return "You are not logged in! Please log in to get access."
}

func (e AuthError) Unwrap() error { return e.Err }

func (e AuthError) Status() int {
	if e.Forbidden {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// InternalError is a 500. Public marks Msg as safe to show in production.
type InternalError struct {
	Msg    string
	Public bool
	Err    error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
