package access

import (
	"net/http"

	"github.com/Additional-Code/depot/pkg/errorbank"
)

// Policy names the rule guarding a group of endpoints.
type Policy int

const (
	// AllowAny admits every caller, authenticated or not.
	AllowAny Policy = iota
	// AdminOnly admits administrators for reads and writes.
	AdminOnly
	// Authenticated admits any signed-in caller.
	Authenticated
	// AuthenticatedOrReadOnly admits anyone for reads and signed-in callers for writes.
	AuthenticatedOrReadOnly
)

func (p Policy) String() string {
	switch p {
	case AllowAny:
		return "allow_any"
	case AdminOnly:
		return "admin_only"
	case Authenticated:
		return "authenticated"
	case AuthenticatedOrReadOnly:
		return "authenticated_or_read_only"
	default:
		return "unknown"
	}
}

// Operation distinguishes safe reads from mutating requests.
type Operation int

const (
	Read Operation = iota
	Write
)

func (o Operation) String() string {
	if o == Read {
		return "read"
	}
	return "write"
}

// OperationFor classifies an HTTP method.
func OperationFor(method string) Operation {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return Read
	default:
		return Write
	}
}

const (
	msgNotAuthenticated = "Authentication credentials were not provided."
	msgForbidden        = "You do not have permission to perform this action."
)

// Evaluate decides whether caller may perform op under p. It has no side
// effects; a nil result means the request may proceed.
func Evaluate(p Policy, caller Caller, op Operation) error {
	switch p {
	case AllowAny:
		return nil
	case AuthenticatedOrReadOnly:
		if op == Read {
			return nil
		}
		return requireAuthenticated(caller)
	case Authenticated:
		return requireAuthenticated(caller)
	case AdminOnly:
		if err := requireAuthenticated(caller); err != nil {
			return err
		}
		if !caller.Admin {
			return errorbank.Forbidden(msgForbidden)
		}
		return nil
	default:
		return errorbank.Forbidden(msgForbidden)
	}
}

func requireAuthenticated(caller Caller) error {
	if !caller.Authenticated() {
		return errorbank.Unauthorized(msgNotAuthenticated)
	}
	return nil
}
