package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime"
	"strings"
	"syscall"
)

// define codes for MSWindows errors
const (
	WSAECONNABORTED syscall.Errno = 10053
	WSAECONNRESET   syscall.Errno = 10054
	WSAECONNREFUSED syscall.Errno = 10061
	WSAETIMEDOUT    syscall.Errno = 10060
)

// define error kinds of a monitoring query
var (
	ErrQuery = errors.New("spark query error")

	ErrConnection = fmt.Errorf("%w: %v", ErrQuery, "connection error")
	ErrTimeout    = fmt.Errorf("%w: %v", ErrQuery, "timeout")
	ErrStatus     = fmt.Errorf("%w: %v", ErrQuery, "unexpected status")
	ErrDecode     = fmt.Errorf("%w: %v", ErrQuery, "decode error")
	ErrParams     = fmt.Errorf("%w: %v", ErrQuery, "invalid params")
)

// StatusError keeps the response details of a non-success status
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: GET %s: %d %s", ErrStatus, e.URL, e.Status, e.Body)
}

// Unwrap makes StatusError match ErrStatus
func (e *StatusError) Unwrap() error { return ErrStatus }

// IsErrorConnection verifies error
func IsErrorConnection(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout() {
		return true
	}
	return IsErrorConnectionAborted(err) ||
		IsErrorConnectionRefused(err) ||
		IsErrorConnectionReset(err) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// IsErrorConnectionAborted verifies error
func IsErrorConnectionAborted(err error) bool {
	if runtime.GOOS == "windows" {
		return errors.Is(err, WSAECONNABORTED)
	}
	return errors.Is(err, syscall.ECONNABORTED)
}

// IsErrorConnectionRefused verifies error
func IsErrorConnectionRefused(err error) bool {
	if runtime.GOOS == "windows" {
		return errors.Is(err, WSAECONNREFUSED)
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

// IsErrorConnectionReset verifies error
func IsErrorConnectionReset(err error) bool {
	if runtime.GOOS == "windows" {
		return errors.Is(err, WSAECONNRESET)
	}
	return errors.Is(err, syscall.ECONNRESET)
}

// IsErrorTimedOut verifies error
func IsErrorTimedOut(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if runtime.GOOS == "windows" {
		if errors.Is(err, WSAETIMEDOUT) {
			return true
		}
	} else {
		if errors.Is(err, syscall.ETIMEDOUT) {
			return true
		}
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "deadline") ||
		strings.Contains(s, "timeout")
}
