package matching

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	programMu    sync.RWMutex
	programCache = make(map[string]*vm.Program)
)

// Expr evaluates a boolean expression against env.
func Expr(expression string, env map[string]any) error {
	program, err := compileExpr(expression, env)
	if err != nil {
		return fmt.Errorf("%w: expr %q: %v", ErrInvalid, expression, err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return fmt.Errorf("%w: expr %q: %v", ErrInvalid, expression, err)
	}
	if ok, _ := out.(bool); !ok {
		return fmt.Errorf("%w: expr %q evaluated to false", ErrMismatch, expression)
	}
	return nil
}

func compileExpr(expression string, env map[string]any) (*vm.Program, error) {
	cacheKey := expression + "\x00" + envSignature(env)

	programMu.RLock()
	if program, ok := programCache[cacheKey]; ok {
		programMu.RUnlock()
		return program, nil
	}
	programMu.RUnlock()

	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, err
	}

	programMu.Lock()
	if existing, ok := programCache[cacheKey]; ok {
		programMu.Unlock()
		return existing, nil
	}
	programCache[cacheKey] = program
	programMu.Unlock()

	return program, nil
}

func envSignature(env map[string]any) string {
	if len(env) == 0 {
		return ""
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+fmt.Sprintf("%T", env[k]))
	}
	return strings.Join(parts, ",")
}
