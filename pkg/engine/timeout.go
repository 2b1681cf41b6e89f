package engine

import (
	"errors"
	"fmt"
	"time"
)

// EvalTimeout bounds how long Evaluate waits for a script to build its
// scene and queue its operators.
const EvalTimeout = 5 * time.Second

var (
	// ErrEvalTimeout is returned when a script runs past its limit. The
	// sandbox goroutine is abandoned and its program never reaches a caller.
	ErrEvalTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned for a script that finished after a later
	// Evaluate call on the same engine had started.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evalResult carries one sandbox run back to the waiting caller.
type evalResult struct {
	program *Program
	errors  []EvalError
	err     error
}

// latest reports whether gen is the most recent evaluation.
func (e *Engine) latest(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// await returns the program built by evaluation gen, or an error once
// limit passes. A host re-evaluating on every edit only ever receives
// the scene of the newest script; older ones are dropped on arrival.
func (e *Engine) await(ch <-chan evalResult, gen uint64, limit time.Duration) (*Program, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.latest(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.program, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrEvalTimeout, limit)
	}
}
