package controllers

import "errors"

// Shared error values, mapped at the call sites onto the HTTP taxonomy:
// 401 unauthorized, 409 conflict/invalid transition, 404 not found,
// 400 invalid request, 422 limit exceeded.
var (
	ErrSessionAlreadyOpen = errors.New("table already has an active session")
	ErrNoActiveSession    = errors.New("no active session for this table")
	ErrBadPIN             = errors.New("invalid table or PIN")
	ErrStaleToken         = errors.New("session token is no longer valid")
	ErrEmptyOrder         = errors.New("order has no items")
	ErrQuantityLimit      = errors.New("item quantity must be between 1 and 10")
	ErrTotalLimit         = errors.New("order total exceeds the allowed ceiling")
	ErrUnknownState       = errors.New("unknown order state")
	ErrInvalidTransition  = errors.New("illegal order state transition")
)
