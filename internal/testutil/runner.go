// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/runner"
	"github.com/pkgpulse/pkgpulse/pkg/types"
)

type (
	// Response is one scripted result of FakeRunner.Run.
	Response struct {
		Output runner.Output
		Err    error
		// Hook runs before the response is returned, e.g. to block until
		// the test releases it or to create files the caller expects.
		Hook func(ctx context.Context, cmd backend.Command)
	}

	// FakeRunner replays scripted responses. Commands are matched by their
	// full command line first and then by binary name. Responses for a key
	// are consumed in order; the last one repeats.
	FakeRunner struct {
		mu        sync.Mutex
		responses map[string][]Response
		calls     []backend.Command
	}
)

// NewFakeRunner returns a runner with no scripted responses. Unscripted
// commands fail with runner.ErrNotFound.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string][]Response)}
}

// Ok is a response with exit status 0.
func Ok(stdout string) Response {
	return Response{Output: runner.Output{Stdout: stdout}}
}

// Exit is a response with the given status and streams.
func Exit(code int, stdout, stderr string) Response {
	return Response{Output: runner.Output{ExitCode: types.ExitCode(code), Stdout: stdout, Stderr: stderr}}
}

// Fail is a response whose Run call returns err.
func Fail(err error) Response {
	return Response{Err: err}
}

// On scripts responses for key, a full command line or a binary name.
func (f *FakeRunner) On(key string, responses ...Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = append(f.responses[key], responses...)
	return f
}

// Run implements runner.Runner.
func (f *FakeRunner) Run(ctx context.Context, cmd backend.Command) (*runner.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	resp, ok := f.next(cmd.String())
	if !ok {
		resp, ok = f.next(cmd.Binary)
	}
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("run %s: %w", cmd.Binary, runner.ErrNotFound)
	}
	if resp.Hook != nil {
		resp.Hook(ctx, cmd)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	out := resp.Output
	return &out, nil
}

// Calls returns the commands run so far.
func (f *FakeRunner) Calls() []backend.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.Command(nil), f.calls...)
}

// CallCount returns how many runs matched binary.
func (f *FakeRunner) CallCount(binary string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Binary == binary {
			n++
		}
	}
	return n
}

// next must be called with mu held.
func (f *FakeRunner) next(key string) (Response, bool) {
	queue := f.responses[key]
	if len(queue) == 0 {
		return Response{}, false
	}
	resp := queue[0]
	if len(queue) > 1 {
		f.responses[key] = queue[1:]
	}
	return resp, true
}
