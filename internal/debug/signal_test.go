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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_WaitOnAlreadySetReturnsImmediately(t *testing.T) {
	s := NewSignal()
	s.Set()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on an already-set signal")
	}
}

func TestSignal_SetIsIdempotent(t *testing.T) {
	s := NewSignal()
	s.Set()
	s.Set()
	assert.True(t, s.IsSet())

	s.Clear()
	s.Clear()
	assert.False(t, s.IsSet())
}

func TestSignal_ClearBlocksNextWait(t *testing.T) {
	s := NewSignal()
	s.Set()
	s.Clear()

	released := make(chan struct{})
	go func() {
		s.Wait()
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("Wait returned on a cleared signal")
	case <-time.After(50 * time.Millisecond):
	}

	s.Set()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("Set did not release the waiter")
	}
}

func TestSignal_SetReleasesAllWaiters(t *testing.T) {
	s := NewSignal()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Wait()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	s.Set()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Set did not release every waiter")
	}
}

func TestSignal_WaitContext(t *testing.T) {
	s := NewSignal()
	s.Set()
	require.NoError(t, s.WaitContext(context.Background()))

	s.Clear()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.WaitContext(ctx), context.DeadlineExceeded)
}
