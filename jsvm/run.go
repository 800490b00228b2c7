package jsvm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"github.com/zoobzio/faultline"
)

// Run executes script on vm. Cancelling ctx interrupts the script. A thrown
// value is returned as the faultline error FromException builds for it.
//
// vm must not be used by another goroutine while Run executes.
func Run(ctx context.Context, vm *goja.Runtime, script string, opts ...faultline.Option) (goja.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	defer func() {
		close(done)
		<-stopped
		vm.ClearInterrupt()
	}()

	v, err := vm.RunString(script)
	if err == nil {
		return v, nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return nil, fmt.Errorf("script interrupted: %w", cause)
		}
		return nil, fmt.Errorf("script interrupted: %v", interrupted.Value())
	}
	return nil, FromException(vm, err, opts...)
}
