// Package repository defines the persistence layer: one repo per resource
// type, each declaring its full key template set in one place and funneling
// every write through the store's fan-out Put so no code path can update
// fewer index copies than another.
//
// The sentinel errors below are shared across repositories so handlers can
// map failures onto the HTTP taxonomy without inspecting error strings.
package repository

import (
	"errors"

	"github.com/avicena/wellness-marketplace/internal/store"
)

// ErrNotFound is returned when a record does not exist under its primary
// key. It aliases the store sentinel so callers can match either.
var ErrNotFound = store.ErrNotFound

// ErrEmailExists is returned when registering an email that is already
// taken. Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when an operation cannot proceed because of
// existing state, such as a status transition out of a terminal status.
// Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")
