// Package login holds the state behind the login screen.
package login

import (
	"context"
	"strings"
	"sync"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/infra/logging"
	"github.com/mkrupp/affinity/internal/viewmodel"
)

// Topic is the event topic login state snapshots are published on.
const Topic = "viewmodel:login:state"

// Authenticator performs one login attempt. Implemented by loginsvc.LoginService.
type Authenticator interface {
	Login(ctx context.Context, identifier, secret string) (domain.LoginOutcome, error)
}

// Dispatcher runs fn on the goroutine that owns presentation state.
type Dispatcher func(fn func())

// Option configures a ViewModel.
type Option func(*ViewModel)

// WithDispatcher routes completions through d instead of applying them on
// the goroutine that finished the request. d must eventually run fn.
func WithDispatcher(d Dispatcher) Option {
	return func(vm *ViewModel) {
		vm.dispatch = d
	}
}

// WithLogger replaces the default logger.
func WithLogger(log logging.Logger) Option {
	return func(vm *ViewModel) {
		vm.log = log
	}
}

// ViewModel drives login attempts and exposes their state.
// At most one attempt is in flight per instance; attempts cannot be cancelled.
type ViewModel struct {
	auth     Authenticator
	store    *viewmodel.Store[State]
	dispatch Dispatcher
	log      logging.Logger
	pending  sync.WaitGroup
}

// NewViewModel creates an idle ViewModel submitting through auth.
func NewViewModel(auth Authenticator, opts ...Option) *ViewModel {
	vm := &ViewModel{
		auth:     auth,
		store:    viewmodel.NewStore(Topic, State{Phase: PhaseIdle}),
		dispatch: func(fn func()) { fn() },
		log:      logging.GetLogger("viewmodel.login"),
	}

	for _, opt := range opts {
		opt(vm)
	}

	return vm
}

// State returns a snapshot of the current state.
func (vm *ViewModel) State() State {
	return vm.store.Snapshot()
}

// Subscribe registers fn for every state change. See viewmodel.Store.Subscribe.
func (vm *ViewModel) Subscribe(fn func(State)) (func(), error) {
	//nolint:wrapcheck
	return vm.store.Subscribe(fn)
}

// Login starts an attempt and returns without waiting for it. It does nothing
// while another attempt is in flight, including one started before ClearStates. Blank fields fail immediately without a
// network call.
func (vm *ViewModel) Login(ctx context.Context, identifier, secret string) {
	if strings.TrimSpace(identifier) == "" || strings.TrimSpace(secret) == "" {
		vm.store.Update(func(s *State) bool {
			if s.inflight {
				return false
			}

			s.generation++
			s.fail(domain.ErrBlankCredentials, MessageMissingFields)

			return true
		})

		return
	}

	var generation uint64

	started := vm.store.Update(func(s *State) bool {
		if s.inflight {
			return false
		}

		s.generation++
		generation = s.generation

		s.inflight = true

		s.Phase = PhaseSubmitting
		s.IsLoading = true
		s.Result = nil
		s.ErrorMessage = ""
		s.Err = nil

		return true
	})
	if !started {
		vm.log.DebugContext(ctx, "login ignored, attempt in flight")

		return
	}

	vm.pending.Add(1)

	// The attempt outlives the caller's cancellation but keeps its values.
	ctx = context.WithoutCancel(ctx)

	go func() {
		outcome, err := vm.auth.Login(ctx, identifier, secret)

		vm.dispatch(func() {
			defer vm.pending.Done()

			vm.settle(ctx, generation, outcome, err)
		})
	}()
}

func (vm *ViewModel) settle(ctx context.Context, generation uint64, outcome domain.LoginOutcome, err error) {
	applied := vm.store.Update(func(s *State) bool {
		s.inflight = false

		if s.generation != generation || s.Phase != PhaseSubmitting {
			return false
		}

		s.settle(outcome, err)

		return true
	})

	if !applied {
		vm.log.DebugContext(ctx, "stale login completion dropped")
	}
}

// ClearError dismisses the error message and leaves everything else untouched.
func (vm *ViewModel) ClearError() {
	vm.store.Update(func(s *State) bool {
		if s.ErrorMessage == "" {
			return false
		}

		s.ErrorMessage = ""

		return true
	})
}

// ClearStates resets to Idle. An attempt still in flight keeps blocking new
// ones until it completes, and its result is discarded when it lands.
func (vm *ViewModel) ClearStates() {
	vm.store.Update(func(s *State) bool {
		*s = State{Phase: PhaseIdle, generation: s.generation + 1, inflight: s.inflight}

		return true
	})
}

// Wait blocks until every started attempt has settled.
func (vm *ViewModel) Wait() {
	vm.pending.Wait()
}
