// SPDX-License-Identifier: MPL-2.0

package manifest

const (
	inheritUnset inheritState = iota
	inheritLocal
	inheritDelegated
)

type (
	inheritState uint8

	// Inheritable is a package field that is either absent, set locally, or
	// delegated to the enclosing workspace with `key.workspace = true`.
	// Delegated values carry no data and are never defaulted; the workspace
	// resolver replaces them with the workspace's value.
	Inheritable[T any] struct {
		value T
		state inheritState
	}
)

// Local returns an Inheritable holding v.
func Local[T any](v T) Inheritable[T] {
	return Inheritable[T]{value: v, state: inheritLocal}
}

// Delegated returns an Inheritable that defers to the workspace.
func Delegated[T any]() Inheritable[T] {
	return Inheritable[T]{state: inheritDelegated}
}

// IsSet reports whether the value is set locally.
func (i Inheritable[T]) IsSet() bool { return i.state == inheritLocal }

// IsDelegated reports whether the value is inherited from the workspace.
func (i Inheritable[T]) IsDelegated() bool { return i.state == inheritDelegated }

// IsUnset reports whether the key was absent.
func (i Inheritable[T]) IsUnset() bool { return i.state == inheritUnset }

// Get returns the local value, the zero value when unset, or ErrDelegatedValue
// when the value has not been resolved against a workspace yet.
func (i Inheritable[T]) Get() (T, error) {
	if i.state == inheritDelegated {
		var zero T
		return zero, ErrDelegatedValue
	}
	return i.value, nil
}

// Value returns the local value, or the zero value when unset or delegated.
func (i Inheritable[T]) Value() T {
	if i.state != inheritLocal {
		var zero T
		return zero
	}
	return i.value
}

// ValueOr returns the local value, or def when unset or delegated.
func (i Inheritable[T]) ValueOr(def T) T {
	if i.state != inheritLocal {
		return def
	}
	return i.value
}
