package container

import "errors"

var (
	// ErrDuplicateBinding is returned when a key is registered more than
	// once. The original binding is retained.
	ErrDuplicateBinding = errors.New("container: duplicate binding")

	// ErrBindingNotFound is returned when a resolution — direct or as a
	// transitive dependency — requests a key that has no binding.
	ErrBindingNotFound = errors.New("container: binding not found")

	// ErrScopeViolation is returned when a Scoped binding is resolved
	// without an active scope.
	ErrScopeViolation = errors.New("container: scoped binding resolved outside a scope")

	// ErrCircularDependency is returned when the resolution path revisits a
	// key that is already being built. The error message carries the full
	// chain.
	ErrCircularDependency = errors.New("container: circular dependency")

	// ErrScopeClosed is returned when a Scoped binding is resolved through
	// a scope that has already been closed.
	ErrScopeClosed = errors.New("container: scope closed")
)
