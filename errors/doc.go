/*
Package errors provides semantic error types for entityview.

Each error type matches a sentinel through errors.Is, and the Is* helpers
wrap those checks.

Storage errors:

	ErrNotFound        // no record under the key, or no store for a type
	ErrAlreadyExists   // key already tracked or registered
	ErrInvalidInput    // validation failures
	ErrConditionFailed // conditional writes
	ErrNoIndexMap      // type has no registered index map

Adapter errors:

	ErrBinding               // BindView could not wire the concrete type
	ErrTypeMismatch          // a mutation got a value of another concrete type
	ErrNarrowing             // an element does not implement the view's abstraction
	ErrUnknownMember         // a query names a member the type does not have
	ErrUnsupportedExpression // a provider cannot translate the expression

Usage:

	view, err := entityview.BindManaged[Doc, *TextDoc](s)
	if errors.IsBindingError(err) {
	    return fmt.Errorf("no store for text documents: %w", err)
	}

	if _, err := view.Add(doc); errors.IsTypeMismatch(err) {
	    // doc is not a *TextDoc
	}

BindingError wraps the registry failure that caused it, so
errors.IsNotFound also holds for a missing store.
*/
package errors
