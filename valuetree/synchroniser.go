package valuetree

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/burntcarrot/treesync/commons"
	"github.com/burntcarrot/treesync/internal/telemetry"
	"github.com/burntcarrot/treesync/wire"
)

// Synchroniser keeps one replica tree up to date from batches of change
// records addressed to its tree id.
//
// There is a single writer, the goroutine calling HandleStateChange. Readers
// go through View, which never observes a half-applied batch. Observers are
// notified once per batch, after the batch is complete.
type Synchroniser struct {
	treeID string
	root   *Tree

	mu          sync.RWMutex
	initialSync bool
	outOfSync   bool

	onInitialSync func()

	obsMu     sync.Mutex
	observers []func()
}

// Option configures a Synchroniser.
type Option func(*Synchroniser)

// WithInitialSync registers fn to run once, after the batch carrying the
// first full sync has been applied.
func WithInitialSync(fn func()) Option {
	return func(s *Synchroniser) {
		s.onInitialSync = fn
	}
}

// NewSynchroniser binds treeID to root. root keeps its identity for the life
// of the synchroniser; full syncs replace its contents.
func NewSynchroniser(treeID string, root *Tree, opts ...Option) *Synchroniser {
	s := &Synchroniser{treeID: treeID, root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchroniser) TreeID() string {
	return s.treeID
}

// Root returns the replica root. Read it through View while changes may arrive.
func (s *Synchroniser) Root() *Tree {
	return s.root
}

// Observe registers fn to be called after every batch that changed the tree.
func (s *Synchroniser) Observe(fn func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

// View calls fn with the root while holding the read lock. fn must not keep
// references to the tree after it returns.
func (s *Synchroniser) View(fn func(root *Tree)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.root)
}

// Snapshot returns a detached copy of the replica.
func (s *Synchroniser) Snapshot() *Tree {
	var out *Tree
	s.View(func(root *Tree) {
		out = root.Clone()
	})
	return out
}

// Synced reports whether a full sync has been received.
func (s *Synchroniser) Synced() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialSync
}

// OutOfSync reports whether a change was rejected since the last full sync.
// The caller should ask the host for a fresh full sync.
func (s *Synchroniser) OutOfSync() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outOfSync
}

// HandleMessage decodes a StateChange body and applies it. It has the shape
// of a dispatch handler.
func (s *Synchroniser) HandleMessage(data json.RawMessage) error {
	var change commons.StateChange
	if err := json.Unmarshal(data, &change); err != nil {
		return fmt.Errorf("decoding state change: %w", err)
	}

	_, err := s.HandleStateChange(change)
	return err
}

// HandleStateChange applies the batch's changes in order and returns how many
// were applied. Batches for other trees are ignored. Rejected changes are
// logged, skipped and reported together in the returned error.
func (s *Synchroniser) HandleStateChange(change commons.StateChange) (int, error) {
	if change.TreeID != s.treeID {
		logger.Debugf("ignoring %d changes for tree %q", len(change.Changes), change.TreeID)
		return 0, nil
	}

	start := time.Now()
	applied, firstSync, errs := s.applyBatch(change.Changes)
	telemetry.BatchDuration.WithLabelValues(s.treeID).Observe(time.Since(start).Seconds())

	if firstSync && s.onInitialSync != nil {
		s.onInitialSync()
	}
	if applied > 0 {
		s.notify()
	}

	return applied, errors.Join(errs...)
}

func (s *Synchroniser) applyBatch(changes []string) (applied int, firstSync bool, errs []error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, blob := range changes {
		data, err := base64.StdEncoding.DecodeString(blob)
		if err != nil {
			err = fmt.Errorf("change %d: %w: %v", i, ErrCorrupt, err)
			s.reject(err)
			errs = append(errs, err)
			continue
		}

		fullSync := false
		if err := ApplyChange(s.root, data, func() { fullSync = true }); err != nil {
			err = fmt.Errorf("change %d: %w", i, err)
			s.reject(err)
			errs = append(errs, err)
			continue
		}

		applied++
		telemetry.ChangesApplied.WithLabelValues(s.treeID).Inc()

		if fullSync {
			telemetry.FullSyncs.WithLabelValues(s.treeID).Inc()
			s.outOfSync = false
			if !s.initialSync {
				s.initialSync = true
				firstSync = true
			}
		}
	}

	return applied, firstSync, errs
}

// reject records a failed change. Must be called with mu held.
func (s *Synchroniser) reject(err error) {
	s.outOfSync = true
	logger.WithField("tree", s.treeID).Warnf("change rejected: %v", err)
	telemetry.ChangesFailed.WithLabelValues(s.treeID, failureReason(err)).Inc()
}

func (s *Synchroniser) notify() {
	s.obsMu.Lock()
	observers := make([]func(), len(s.observers))
	copy(observers, s.observers)
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, wire.ErrBinaryUnsupported):
		return "unsupported"
	case errors.Is(err, ErrOutOfSync):
		return "out_of_sync"
	}
	return "corrupt"
}
