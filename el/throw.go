package el

import (
	"errors"

	"github.com/dop251/goja"
)

// hostError is the opaque payload stored on thrown script errors so the
// original Go error survives a round trip through script frames.
type hostError struct {
	err error
}

// throw raises err into the running script as a catchable exception. The
// thrown object exposes name and message to script and carries the Go
// error in a reserved slot so host code unwrapping the exception gets the
// typed error back, not a flattened message.
func (e *Engine) throw(err error) {
	name := "Error"
	if IsTypeMismatch(err) {
		name = "TypeError"
	}
	obj := e.vm.NewObject()
	_ = obj.Set("name", name)
	_ = obj.Set("message", err.Error())
	_ = obj.SetSymbol(e.hostErrSym, e.vm.ToValue(hostError{err: err}))
	panic(obj)
}

// unwrapScriptError recovers the typed host error from an uncaught script
// exception raised by throw. Script-originated exceptions pass through
// unchanged.
func (e *Engine) unwrapScriptError(err error) error {
	if err == nil {
		return nil
	}
	var exc *goja.Exception
	if !errors.As(err, &exc) {
		return err
	}
	obj, ok := exc.Value().(*goja.Object)
	if !ok {
		return err
	}
	slot := obj.GetSymbol(e.hostErrSym)
	if slot == nil || goja.IsUndefined(slot) {
		return err
	}
	if he, ok := slot.Export().(hostError); ok {
		return he.err
	}
	return err
}
