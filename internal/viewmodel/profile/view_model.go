// Package profile holds the state behind the profile screen.
package profile

import (
	"context"
	"strings"

	"github.com/mkrupp/affinity/internal/domain"
	context_ "github.com/mkrupp/affinity/internal/infra/context"
	"github.com/mkrupp/affinity/internal/infra/logging"
	profilerepo "github.com/mkrupp/affinity/internal/repo/profile"
	"github.com/mkrupp/affinity/internal/viewmodel"
)

// Topic is the event topic profile state snapshots are published on.
const Topic = "viewmodel:profile:state"

// ViewModel loads, edits and deletes the signed-in user's profile.
// Operations block until the repository answers.
type ViewModel struct {
	repo  profilerepo.Repository
	store *viewmodel.Store[State]
	log   logging.Logger
}

// NewViewModel creates a ViewModel backed by repo.
func NewViewModel(repo profilerepo.Repository) *ViewModel {
	return &ViewModel{
		repo:  repo,
		store: viewmodel.NewStore(Topic, State{}),
		log:   logging.GetLogger("viewmodel.profile"),
	}
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

// LoadProfile fetches the profile for handle. Any failure clears the
// profile shown before.
func (vm *ViewModel) LoadProfile(ctx context.Context, handle string) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		vm.setError(MessageMissingHandle)

		return
	}

	ctx = context_.WithUsername(ctx, handle)

	vm.begin()

	p, found, err := vm.repo.GetProfile(ctx, handle)

	vm.store.Update(func(s *State) bool {
		s.IsLoading = false

		switch {
		case err != nil:
			vm.log.ErrorContext(ctx, "load profile failed", "handle", handle, "error", err)
			s.Profile = nil
			s.ErrorMessage = errorMessage(err)
		case !found:
			s.Profile = nil
			s.ErrorMessage = MessageProfileNotFound
		default:
			s.Profile = p
		}

		return true
	})
}

// UpdateProfile stores p, then reloads it so the state shows what the
// backend kept.
func (vm *ViewModel) UpdateProfile(ctx context.Context, p domain.UserProfile, secret string) {
	if strings.TrimSpace(p.Handle) == "" {
		vm.setError(MessageMissingHandle)

		return
	}

	if strings.TrimSpace(secret) == "" {
		vm.setError(MessageMissingPassword)

		return
	}

	ctx = context_.WithUsername(ctx, p.Handle)

	vm.begin()

	message, err := vm.repo.UpdateProfile(ctx, p, secret)
	if err != nil {
		vm.log.ErrorContext(ctx, "update profile failed", "handle", p.Handle, "error", err)
		vm.finish(errorMessage(err))

		return
	}

	vm.store.Update(func(s *State) bool {
		s.Message = message

		return true
	})

	vm.LoadProfile(ctx, p.Handle)
}

// DeleteAccount removes the account with the given id and clears the profile.
func (vm *ViewModel) DeleteAccount(ctx context.Context, id int64) {
	vm.begin()

	message, err := vm.repo.DeleteUser(ctx, id)
	if err != nil {
		vm.log.ErrorContext(ctx, "delete account failed", "id", id, "error", err)
		vm.finish(errorMessage(err))

		return
	}

	vm.store.Update(func(s *State) bool {
		s.IsLoading = false
		s.Profile = nil
		s.Message = message

		return true
	})
}

// ClearError dismisses the error message.
func (vm *ViewModel) ClearError() {
	vm.store.Update(func(s *State) bool {
		if s.ErrorMessage == "" {
			return false
		}

		s.ErrorMessage = ""

		return true
	})
}

// ClearMessage dismisses the confirmation message.
func (vm *ViewModel) ClearMessage() {
	vm.store.Update(func(s *State) bool {
		if s.Message == "" {
			return false
		}

		s.Message = ""

		return true
	})
}

func (vm *ViewModel) begin() {
	vm.store.Update(func(s *State) bool {
		s.IsLoading = true
		s.ErrorMessage = ""

		return true
	})
}

func (vm *ViewModel) finish(errMessage string) {
	vm.store.Update(func(s *State) bool {
		s.IsLoading = false
		s.ErrorMessage = errMessage

		return true
	})
}

func (vm *ViewModel) setError(message string) {
	vm.store.Update(func(s *State) bool {
		s.ErrorMessage = message

		return true
	})
}
