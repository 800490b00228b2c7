//go:build js

package faultline

const domExceptionName = "DOMException"

// DOMException is the browser host's error kind.
type DOMException struct{ *Core }

// NewDOMException returns a DOMException with a captured stack.
func NewDOMException(message string) *DOMException {
	return &DOMException{newCore(domExceptionName, message)}
}

func hostConstructors() []Constructor {
	return []Constructor{
		func(m string) Instance { return NewDOMException(m) },
	}
}
