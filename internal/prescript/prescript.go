// Package prescript runs the user's pre-send script.
//
// The script is trusted code written by the person sending the request.
// It runs in an embedded goja interpreter with no filesystem, network or
// process access bound in, and it is interrupted after a timeout, but it
// is not isolated in any other way: a script can still allocate freely
// or spin until the timeout fires.
package prescript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/vedsharma/apireplay/internal/model"
)

// DefaultTimeout bounds a single script run.
const DefaultTimeout = 2 * time.Second

// Draft is the request tuple a script receives and returns.
type Draft struct {
	URL     string
	Method  model.Method
	Params  []model.KeyValue
	Headers map[string]string
	Body    string
}

// Transform rewrites a draft before it is sent.
type Transform interface {
	Apply(ctx context.Context, d Draft) (Draft, error)
}

// Noop returns drafts unchanged.
type Noop struct{}

func (Noop) Apply(_ context.Context, d Draft) (Draft, error) {
	return d, nil
}

// Error is an authoring error: the script failed to compile, threw, timed
// out or returned something other than {url, method, params, headers, body}.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	return "prescript error: " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(err error, format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...), Err: err}
}

// ScriptTransform evaluates Source as the body of
// function(url, method, params, headers, body).
type ScriptTransform struct {
	Source  string
	Timeout time.Duration
}

// New returns Noop for blank sources and a ScriptTransform otherwise.
func New(source string, timeout time.Duration) Transform {
	if strings.TrimSpace(source) == "" {
		return Noop{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ScriptTransform{Source: source, Timeout: timeout}
}

func (s *ScriptTransform) Apply(ctx context.Context, d Draft) (Draft, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	vm := goja.New()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	if err := bindConsole(vm); err != nil {
		return Draft{}, errorf(err, "bind console: %v", err)
	}

	fnValue, err := vm.RunString("(function(url, method, params, headers, body) {\n" + s.Source + "\n})")
	if err != nil {
		return Draft{}, errorf(err, "%s", describe(err))
	}
	fn, ok := goja.AssertFunction(fnValue)
	if !ok {
		return Draft{}, errorf(nil, "script did not compile to a function")
	}

	result, err := fn(goja.Undefined(),
		vm.ToValue(d.URL),
		vm.ToValue(string(d.Method)),
		vm.ToValue(paramsToJS(d.Params)),
		vm.ToValue(headersToJS(d.Headers)),
		vm.ToValue(d.Body),
	)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return Draft{}, errorf(ctx.Err(), "script interrupted: %v", ctx.Err())
		}
		return Draft{}, errorf(err, "%s", describe(err))
	}

	return decodeGuarded(ctx, result)
}

// decodeGuarded reads the returned object. Getters and toString methods
// run script code during the read, and goja reports their throws and
// interrupts by panicking.
func decodeGuarded(ctx context.Context, result goja.Value) (d Draft, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch x := r.(type) {
		case *goja.InterruptedError:
			d, err = Draft{}, errorf(ctx.Err(), "script interrupted: %v", ctx.Err())
		case *goja.Exception:
			d, err = Draft{}, errorf(x, "%s", exceptionText(x))
		default:
			panic(r)
		}
	}()
	return decodeResult(result)
}

func exceptionText(e *goja.Exception) (text string) {
	defer func() {
		if recover() != nil {
			text = "uncaught exception"
		}
	}()
	return e.Value().String()
}

func bindConsole(vm *goja.Runtime) error {
	logFn := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			slog.Log(context.Background(), level, "prescript console", "message", strings.Join(parts, " "))
			return goja.Undefined()
		}
	}
	return vm.Set("console", map[string]any{
		"log":   logFn(slog.LevelDebug),
		"warn":  logFn(slog.LevelDebug),
		"error": logFn(slog.LevelDebug),
	})
}

func describe(err error) string {
	var exception *goja.Exception
	if errors.As(err, &exception) {
		return exceptionText(exception)
	}
	return err.Error()
}

func paramsToJS(params []model.KeyValue) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = map[string]any{"key": p.Key, "value": p.Value, "enabled": p.Enabled}
	}
	return out
}

func headersToJS(headers map[string]string) map[string]any {
	out := make(map[string]any, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	return out
}
