package results

import (
	"errors"
	"fmt"
	"strings"
)

// Error holds a message, a reason and a child, allowing for an error
// chain that can be classified after the fact:
//
//	if err := load(path); err != nil {
//	    return results.ForReason(results.ReasonMissingReport).WithError(err).Errorf("no report at %s", path)
//	}
type Error struct {
	reason  Reason
	message string
	wrapped error
}

// Error makes an Error an error
func (e *Error) Error() string {
	return e.message
}

// Unwrap allows nesting of errors
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Reason is the reason this particular link of the chain was created for.
func (e *Error) Reason() Reason {
	return e.reason
}

// Is allows us to say we are an Error. A target with a reason only
// matches an Error carrying the same reason.
func (e *Error) Is(target error) bool {
	t, is := target.(*Error)
	if !is {
		return false
	}
	return t.reason == "" || t.reason == e.reason
}

// HasReason determines whether any link in the chain of err carries the reason.
func HasReason(err error, reason Reason) bool {
	return errors.Is(err, &Error{reason: reason})
}

// Reasons provides the chains of error reasons.
// Each item in the return value is a single chain divided by colons. Aggregate
// errors, whose type provides an `Errors` method returning a list of
// errors, are recursively expanded, generating a separate chain for each
// child.
func Reasons(errs ...error) (ret []string) {
	for _, err := range errs {
		switch err := err.(type) {
		case *Error:
			children := Reasons(err.Unwrap())
			if len(children) == 0 {
				ret = append(ret, string(err.reason))
				break
			}
			for _, r := range children {
				ret = append(ret, fmt.Sprintf("%s:%s", err.reason, r))
			}
		case interface{ Errors() []error }:
			ret = append(ret, Reasons(err.Errors()...)...)
		case interface{ Unwrap() error }:
			ret = append(ret, Reasons(err.Unwrap())...)
		}
	}
	return
}

// FullReason joins all reason chains of err into a single string. Errors
// without any reason are reported as ReasonUnknown.
func FullReason(err error) string {
	reasons := Reasons(err)
	if len(reasons) == 0 {
		return string(ReasonUnknown)
	}
	return strings.Join(reasons, ",")
}

// BuilderWithReason starts the builder chain
type BuilderWithReason struct {
	Error
}

// ForReason is a constructor for an Error from a Reason. We expect
// users to then add a child and a error message to this Error.
func ForReason(reason Reason) *BuilderWithReason {
	if reason == "" {
		reason = ReasonUnknown
	}
	return &BuilderWithReason{
		Error: Error{
			reason: reason,
		},
	}
}

// Errorf finishes an Error that has no child.
func (e *BuilderWithReason) Errorf(format string, args ...interface{}) error {
	e.message = fmt.Sprintf(format, args...)
	return &e.Error
}

// BuilderWithReasonAndError adds a child error to the builder
type BuilderWithReasonAndError struct {
	Error
}

// WithError is a builder that adds a child to the Error. We
// expect users to continue to build the Error by adding a message.
func (e *BuilderWithReason) WithError(err error) *BuilderWithReasonAndError {
	b := &BuilderWithReasonAndError{
		Error: e.Error,
	}
	b.wrapped = err
	return b
}

// Errorf is a builder that adds in the main error to an Error.
// This is expected to be the final builder/producer in a chain,
// so we return an error and not an Error
func (e *BuilderWithReasonAndError) Errorf(format string, args ...interface{}) error {
	e.message = fmt.Sprintf(format, args...)
	return &e.Error
}

// ForError is a constructor for when a caller does not want to add
// a message but instead wants to tag an existing error:
//
//	err := results.ForReason(results.ReasonLoadingArgs).ForError(o.validate())
func (e *BuilderWithReason) ForError(err error) error {
	if err == nil {
		return nil
	}
	e.wrapped = err
	e.message = err.Error()
	return &e.Error
}

// DefaultReason is a constructor that adds a reason if needed, when we
// want to ensure that consumers downstream of a callsite have an Error.
func DefaultReason(err error) error {
	if errors.Is(err, &Error{}) {
		return err
	}

	return ForReason(ReasonUnknown).ForError(err)
}
