package apiclient

// Result is the decoded outcome of a backend call that answered with JSON:
// either the expected payload or the message from an {"error": ...} envelope.
type Result[T any] struct {
	data T
	msg  string
	ok   bool
}

// Ok wraps a successful payload.
func Ok[T any](data T) Result[T] {
	return Result[T]{data: data, ok: true}
}

// Err wraps an error payload message.
func Err[T any](msg string) Result[T] {
	return Result[T]{msg: msg}
}

// IsOk reports whether the result carries a payload.
func (r Result[T]) IsOk() bool { return r.ok }

// Get returns the payload and whether it is present.
func (r Result[T]) Get() (T, bool) { return r.data, r.ok }

// Message returns the error payload message, empty for Ok results.
func (r Result[T]) Message() string { return r.msg }
