package grammar

import "errors"

// ErrUnsupported is the sentinel every UnsupportedError unwraps to.
var ErrUnsupported = errors.New("unsupported by database driver")

// UnsupportedError is returned when a dialect does not implement a compile step,
// a column type or a column modifier. Message is the exact, stable text shown to the
// caller.
type UnsupportedError struct {
	Message string
}

func (e *UnsupportedError) Error() string {
	return e.Message
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// Unsupported builds the operation-level error:
//
//	This database driver does not support <operation>.
func Unsupported(operation string) error {
	return &UnsupportedError{Message: "This database driver does not support " + operation + "."}
}

// UnsupportedModifier builds the column-modifier error. The lower-case first letter
// is part of the contract:
//
//	this database driver does not support <modifier> column modifier.
func UnsupportedModifier(modifier string) error {
	return &UnsupportedError{Message: "this database driver does not support " + modifier + " column modifier."}
}

// UnsupportedType builds the column-type error.
func UnsupportedType(typ string) error {
	return &UnsupportedError{Message: "This database driver does not support the " + typ + " type."}
}

// Messages of the base grammar.
const (
	opInsertOrIgnore = "inserting while ignoring errors"
	opUpsert         = "upserting columns"
	opJSONSelector   = "JSON operations"
	opJSONContains   = "JSON contains operations"
	opJSONLength     = "JSON length operations"
	opJSONUpdate     = "JSON updates"
	opEscapeBinary   = "escaping binary values"
	opEscapeArray    = "escaping arrays"
)

// unsupportedPanic carries an UnsupportedError out of a hook that has no error
// result, such as the identifier wrapping behind Wrap.
type unsupportedPanic struct {
	err error
}

// recoverUnsupported is deferred by the compile entry points of Base. It turns an
// unsupportedPanic into the returned error and re-panics anything else.
func recoverUnsupported(err *error) {
	r := recover()
	if r == nil {
		return
	}

	p, ok := r.(unsupportedPanic)
	if !ok {
		panic(r)
	}
	*err = p.err
}
