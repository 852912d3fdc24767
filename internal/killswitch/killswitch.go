package killswitch

import (
	"errors"
	"sync"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/event"
	"go.uber.org/zap"
)

var ErrSystemPaused = errors.New("system is paused")

// Guard is consulted by every mutating operation across the engine before
// it touches state. Multi-step operations bracket their work with
// Enter/Exit so a pause can never land halfway through them.
type Guard interface {
	RequireActive() error
	Enter() error
	Exit()
}

// Killswitch is the shared emergency pause flag. It starts active and can
// only be flipped by principals holding the killswitch role. Pausing
// drains: it waits for every entered operation to finish, and rejects new
// entries while it waits.
type Killswitch struct {
	mu       sync.Mutex
	cond     *sync.Cond
	paused   bool
	draining bool
	inFlight int
	acl      access.Authorizer
}

func New(acl access.Authorizer) *Killswitch {
	k := &Killswitch{acl: acl}
	k.cond = sync.NewCond(&k.mu)

	return k
}

func (k *Killswitch) Paused() bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.paused
}

// RequireActive passes while a pause is still draining, so operations
// already in flight can run their remaining steps to completion.
func (k *Killswitch) RequireActive() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.paused {
		return ErrSystemPaused
	}

	return nil
}

// Enter registers a multi-step operation with the guard. It fails as soon
// as a pause has been requested, even before the pause takes effect.
func (k *Killswitch) Enter() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.paused || k.draining {
		return ErrSystemPaused
	}
	k.inFlight++

	return nil
}

func (k *Killswitch) Exit() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.inFlight--
	if k.inFlight == 0 {
		k.cond.Broadcast()
	}
}

// Pause blocks until every in-flight operation has exited, then flips the
// system to paused.
func (k *Killswitch) Pause(caller string) error {
	if err := k.acl.RequireRole(access.KillswitchRole, caller); err != nil {
		return err
	}

	k.mu.Lock()
	k.draining = true
	for k.inFlight > 0 {
		k.cond.Wait()
	}
	k.paused = true
	k.draining = false
	k.mu.Unlock()

	zap.L().With(zap.String("caller", caller)).Warn("Killswitch: System paused")
	event.EmitEvent(event.SystemPausedEvent, caller)

	return nil
}

func (k *Killswitch) Unpause(caller string) error {
	if err := k.acl.RequireRole(access.KillswitchRole, caller); err != nil {
		return err
	}

	k.mu.Lock()
	k.paused = false
	k.mu.Unlock()

	zap.L().With(zap.String("caller", caller)).Info("Killswitch: System resumed")
	event.EmitEvent(event.SystemResumedEvent, caller)

	return nil
}
