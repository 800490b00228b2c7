//go:build unix || windows

package faultline

const systemErrorName = "SystemError"

// SystemError reports a failure surfaced by the operating system.
type SystemError struct{ *Core }

// NewSystemError returns a SystemError with a captured stack.
func NewSystemError(message string) *SystemError {
	return &SystemError{newCore(systemErrorName, message)}
}

func hostConstructors() []Constructor {
	return []Constructor{
		func(m string) Instance { return NewSystemError(m) },
	}
}
