package javascript

import (
	"strings"

	"github.com/caffeineduck/codepit/executor"
	"github.com/dop251/goja"
)

// installConsole replaces the global console with one that writes into
// capture. error and warn lines carry a prefix; everything else is plain.
func installConsole(vm *goja.Runtime, capture *executor.Capture) error {
	stringify, _ := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))

	printer := func(prefix string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			capture.PrefixedLine(prefix, formatArgs(vm, stringify, call.Arguments))
			return goja.Undefined()
		}
	}

	console := vm.NewObject()
	methods := map[string]string{
		"log":   "",
		"info":  "",
		"debug": "",
		"error": "Error: ",
		"warn":  "Warning: ",
	}
	for name, prefix := range methods {
		if err := console.Set(name, printer(prefix)); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}

// formatArgs renders console arguments the way a browser console copies
// them as text: objects as indented JSON, everything else via String().
func formatArgs(vm *goja.Runtime, stringify goja.Callable, args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatValue(vm, stringify, arg)
	}
	return strings.Join(parts, " ")
}

func formatValue(vm *goja.Runtime, stringify goja.Callable, v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	obj, ok := v.(*goja.Object)
	if !ok || stringify == nil {
		return v.String()
	}
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return v.String()
	}

	out, err := stringify(goja.Undefined(), obj, goja.Null(), vm.ToValue(2))
	if err != nil || out == nil || goja.IsUndefined(out) {
		// circular structures and values JSON cannot represent
		return v.String()
	}
	return out.String()
}
