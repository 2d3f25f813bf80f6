package ui

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/room"
	"github.com/five82/folio/internal/session"
)

// describeError turns an error into a short phrase for the status line.
func describeError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, session.ErrExpired), errors.Is(err, api.ErrUnauthorized):
		return "Please log in again"
	case errors.Is(err, api.ErrNotFound):
		return "Not found"
	case errors.Is(err, api.ErrValidation):
		return api.Reason(err, "Invalid input")
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	case errors.Is(err, room.ErrNotParticipant), errors.Is(err, room.ErrEmptyMessage),
		errors.Is(err, room.ErrBusy), errors.Is(err, room.ErrNotLoaded), errors.Is(err, room.ErrNotOwner):
		return capitalize(err.Error())
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return api.Reason(err, "Server error")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "Request timed out"
		}
		return "Cannot reach server"
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Cannot reach server"
	case strings.Contains(msg, "no such host"):
		return "Server host not found"
	default:
		return truncate(msg, 80)
	}
}
