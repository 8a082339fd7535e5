package repository

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the store refuses calls, for example while
// a circuit breaker is open.
var ErrUnavailable = errors.New("storage temporarily unavailable")

// Resource names used in repository errors.
const (
	ResourceProject = "project"
	ResourceNode    = "node"
	ResourceGroup   = "group"
	ResourceAsset   = "asset"
)

// ErrNotFound represents a resource not found error in the repository layer.
type ErrNotFound struct {
	Resource string // The type of resource (e.g., "node", "group")
	ID       string // The identifier that was not found
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

// ErrAlreadyExists is returned when a create would duplicate a client id
// inside a project.
type ErrAlreadyExists struct {
	Resource string
	ID       string
}

func (e ErrAlreadyExists) Error() string {
	return fmt.Sprintf("%s with ID '%s' already exists", e.Resource, e.ID)
}

// ErrConflict represents an optimistic-lock conflict in the repository layer.
type ErrConflict struct {
	Resource string // The type of resource (e.g., "node", "project")
	ID       string // The identifier that caused the conflict
	Reason   string // The reason for the conflict
}

func (e ErrConflict) Error() string {
	return fmt.Sprintf("conflict with %s '%s': %s", e.Resource, e.ID, e.Reason)
}

// NewNotFound creates a new ErrNotFound.
func NewNotFound(resource, id string) ErrNotFound {
	return ErrNotFound{Resource: resource, ID: id}
}

// NewAlreadyExists creates a new ErrAlreadyExists.
func NewAlreadyExists(resource, id string) ErrAlreadyExists {
	return ErrAlreadyExists{Resource: resource, ID: id}
}

// NewVersionConflict creates an ErrConflict for a stale version.
func NewVersionConflict(resource, id string, expected, actual int) ErrConflict {
	return ErrConflict{
		Resource: resource,
		ID:       id,
		Reason:   fmt.Sprintf("expected version %d, found %d", expected, actual),
	}
}

// IsNotFound checks if an error is a repository not found error.
func IsNotFound(err error) bool {
	var target ErrNotFound
	return errors.As(err, &target)
}

// IsAlreadyExists checks if an error is a repository duplicate error.
func IsAlreadyExists(err error) bool {
	var target ErrAlreadyExists
	return errors.As(err, &target)
}

// IsConflict checks if an error is a repository conflict error.
func IsConflict(err error) bool {
	var target ErrConflict
	return errors.As(err, &target)
}

// IsExpected reports whether err is a normal outcome of a well-formed call
// (missing row, duplicate, stale version) rather than a storage failure.
func IsExpected(err error) bool {
	return err == nil || IsNotFound(err) || IsAlreadyExists(err) || IsConflict(err)
}
