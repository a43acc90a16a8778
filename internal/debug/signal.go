// Copyright 2025 The FlowPilot Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package debug

import (
	"context"
	"sync"
)

// Signal is a single-slot, level-set synchronization primitive gating
// the controller's suspension point. Setting it while already set is a
// no-op; a waiter that arrives after Set proceeds immediately. Clearing
// it makes the next Wait block until the next Set.
//
// Set broadcasts: every goroutine blocked in Wait is released, which is
// what lets StopDebugging unconditionally unblock the worker.
type Signal struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{}
}

// NewSignal creates a cleared signal.
func NewSignal() *Signal {
	return &Signal{
		ch: make(chan struct{}),
	}
}

// Set marks the signal as "go" and releases all waiters. Idempotent.
func (s *Signal) Set() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		s.set = true
		close(s.ch)
	}
}

// Clear resets the signal so the next Wait blocks. Idempotent.
func (s *Signal) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set {
		s.set = false
		s.ch = make(chan struct{})
	}
}

// IsSet reports whether the signal is currently set.
func (s *Signal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Wait blocks until the signal is set. Returns immediately when it
// already is. There is no timeout: a paused flow stays paused until an
// explicit resume or stop.
func (s *Signal) Wait() {
	s.mu.Lock()
	ch := s.ch
	set := s.set
	s.mu.Unlock()

	if set {
		return
	}
	<-ch
}

// WaitContext blocks like Wait but also returns when ctx is done,
// reporting ctx.Err(). Callers that need a bounded pause can use a
// deadline context; the plain Wait keeps the unbounded default.
func (s *Signal) WaitContext(ctx context.Context) error {
	s.mu.Lock()
	ch := s.ch
	set := s.set
	s.mu.Unlock()

	if set {
		return nil
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
