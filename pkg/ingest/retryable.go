package ingest

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"
)

var transientMarkers = []string{
	"timeout",
	"timed out",
	"connection reset",
	"connection refused",
	"no such host",
	"getaddrinfo",
	"premature close",
	"unexpected eof",
}

// isRetryable reports whether a fetch error is worth another attempt.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrEmptyFile) {
		return false
	}

	switch botport.Code(err) {
	case botport.CodeRateLimited, botport.CodeNetwork, botport.CodeServer, "context_deadline":
		return true
	case botport.CodeBadRequest, botport.CodeForbidden, botport.CodeUnauthorized, botport.CodeNotFound, "context_canceled":
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
