package errors

import stderrors "errors"

// Is and As re-export the standard library helpers so callers only
// need to import this package.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
