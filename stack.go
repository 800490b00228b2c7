package faultline

import (
	"runtime"
	"strconv"
	"strings"
)

// maxStackDepth bounds how many frames a new error records.
const maxStackDepth = 32

// callers records the program counters above a constructor.
// skip follows runtime.Callers: 0 is runtime.Callers itself.
func callers(skip int) []uintptr {
	pc := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip, pc)
	return pc[:n]
}

// renderStack formats frames the way error stacks usually travel between
// processes: a "Name: message" header followed by one "at" line per frame.
func renderStack(name, message string, pcs []uintptr) string {
	var b strings.Builder
	b.WriteString(header(name, message))

	if len(pcs) == 0 {
		return b.String()
	}

	frames := runtime.CallersFrames(pcs)
	for {
		fr, more := frames.Next()
		if fr.Function != "" {
			b.WriteString("\n    at ")
			b.WriteString(fr.Function)
			b.WriteString(" (")
			b.WriteString(fr.File)
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(fr.Line))
			b.WriteByte(')')
		}
		if !more {
			break
		}
	}
	return b.String()
}

func header(name, message string) string {
	switch {
	case name == "":
		return message
	case message == "":
		return name
	default:
		return name + ": " + message
	}
}
