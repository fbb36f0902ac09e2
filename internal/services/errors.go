// Package services defines the business logic for the metro website: the
// engagement ledger, OTP login, staff accounts, content, comments, requests
// and statistics. This file centralizes service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"
	"fmt"
	"time"
)

// Engagement and content errors.
var (
	// ErrUnauthorized is returned when an operation requires a verified
	// account and the caller does not have one.
	ErrUnauthorized = errors.New("verified account required")

	// ErrItemNotFound indicates that the content item does not exist, was
	// deleted, or the id is malformed.
	ErrItemNotFound = errors.New("content item not found")

	// ErrInvalidContent is returned for missing or out-of-range content fields.
	ErrInvalidContent = errors.New("invalid content")

	// ErrEmptyComment is returned when a comment has no text.
	ErrEmptyComment = errors.New("comment is empty")

	// ErrCommentTooLong is returned when a comment exceeds the rune limit.
	ErrCommentTooLong = errors.New("comment too long")
)

// OTP and credential errors.
var (
	// ErrInvalidPhone is returned when a phone number is not E.164 shaped.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrInvalidAction is returned for an OTP action other than register or login.
	ErrInvalidAction = errors.New("invalid action")

	// ErrNameRequired is returned when registering without a first name.
	ErrNameRequired = errors.New("first name is required")

	// ErrAlreadyRegistered is returned when registering a phone that already
	// belongs to a verified account. No code is issued.
	ErrAlreadyRegistered = errors.New("phone already registered")

	// ErrAccountNotFound is returned when logging in with a phone that has
	// no verified account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidOrExpiredCode merges every reason a code cannot be redeemed.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")

	// ErrDeliveryFailed is returned when the SMS could not be dispatched.
	ErrDeliveryFailed = errors.New("code delivery failed")

	// ErrInvalidCredential is returned for bad refresh tokens and bad staff
	// username/password pairs alike.
	ErrInvalidCredential = errors.New("invalid credentials")
)

// Staff errors.
var (
	// ErrInvalidRole is returned for unknown roles or the visitor role on a
	// staff account.
	ErrInvalidRole = errors.New("invalid staff role")

	// ErrWeakPassword is returned for passwords shorter than the minimum.
	ErrWeakPassword = errors.New("password too short")

	// ErrDuplicateStaff is returned when a username is taken.
	ErrDuplicateStaff = errors.New("username already exists")
)

// Request errors.
var (
	// ErrInvalidRequest is returned for malformed lost-item, vacancy or
	// application input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRequestNotFound indicates a lost-item request, vacancy or
	// application that does not exist.
	ErrRequestNotFound = errors.New("request not found")

	// ErrDuplicateApplication is returned when the phone already has a
	// pending application for the vacancy.
	ErrDuplicateApplication = errors.New("pending application already exists")

	// ErrPendingRequest is the sentinel behind *PendingRequestError.
	ErrPendingRequest = errors.New("previous request still pending")
)

// PendingRequestError reports when another lost-item request may be filed.
type PendingRequestError struct {
	Until time.Time
}

func (e *PendingRequestError) Error() string {
	return fmt.Sprintf("%v until %s", ErrPendingRequest, e.Until.Format("2006-01-02"))
}

// Unwrap lets errors.Is match ErrPendingRequest.
func (e *PendingRequestError) Unwrap() error { return ErrPendingRequest }
