package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/railcab/internal/railroad"
)

// Sources of updates and errors.
const (
	SourceLocomotive          = "locomotive"
	SourceSwitch              = "switch"
	SourceLocomotiveDirectory = "locomotive-directory"
	SourceSwitchDirectory     = "switch-directory"
)

// offlineThreshold is the number of consecutive failures after which a source
// counts as offline.
const offlineThreshold = 2

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Locomotive    railroad.Locomotive
	HasLocomotive bool
	Switches      railroad.SwitchGroup
	HasSwitches   bool

	LocomotiveServers []railroad.Server
	SwitchServers     []railroad.Server
	// Selected server ids, empty when nothing is selected.
	SelectedLocomotive string
	SelectedSwitch     string

	SessionDeadline time.Time

	LastUpdated     time.Time
	LastError       error
	LastErrorSource string
	failures        map[string]int
}

// Failures returns the number of consecutive failures of source.
func (s Snapshot) Failures(source string) int {
	return s.failures[source]
}

// IsOffline returns true when source has failed on multiple polls in a row.
func (s Snapshot) IsOffline(source string) bool {
	return s.failures[source] >= offlineThreshold
}

// SessionRemaining is the control time left at now, zero without a session.
func (s Snapshot) SessionRemaining(now time.Time) time.Duration {
	if s.SessionDeadline.IsZero() || now.After(s.SessionDeadline) {
		return 0
	}
	return s.SessionDeadline.Sub(now)
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// UpdateLocomotive records a new locomotive mirror. It only counts as
// present while a locomotive server is selected. Mirror updates include
// local applies, so they leave the failure count alone; see RecordSuccess.
func (s *Store) UpdateLocomotive(loco railroad.Locomotive) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Locomotive = loco
	s.snapshot.HasLocomotive = loco.ID != "" && s.snapshot.SelectedLocomotive != ""
	s.snapshot.LastUpdated = time.Now()
}

// UpdateSwitches records a new switch group mirror.
func (s *Store) UpdateSwitches(group railroad.SwitchGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Switches = group
	s.snapshot.HasSwitches = group.ID != "" && s.snapshot.SelectedSwitch != ""
	s.snapshot.LastUpdated = time.Now()
}

// UpdateServers replaces the server list of a directory source.
func (s *Store) UpdateServers(source string, servers []railroad.Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch source {
	case SourceLocomotiveDirectory:
		s.snapshot.LocomotiveServers = cloneServers(servers)
	case SourceSwitchDirectory:
		s.snapshot.SwitchServers = cloneServers(servers)
	default:
		return
	}
	s.snapshot.LastUpdated = time.Now()
}

// SetSelection records which server a proxy points at. An empty id clears it.
func (s *Store) SetSelection(source, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch source {
	case SourceLocomotive:
		s.snapshot.SelectedLocomotive = id
		if id == "" {
			s.snapshot.HasLocomotive = false
		}
	case SourceSwitch:
		s.snapshot.SelectedSwitch = id
		if id == "" {
			s.snapshot.HasSwitches = false
		}
	}
}

// SetSessionDeadline records when the control session ends. The zero time
// means no session.
func (s *Store) SetSessionDeadline(deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.SessionDeadline = deadline
}

// RecordError keeps the previous data but records the error for visibility.
func (s *Store) RecordError(source string, err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastError = err
	s.snapshot.LastErrorSource = source
	s.snapshot.LastUpdated = time.Now()
	if s.snapshot.failures == nil {
		s.snapshot.failures = make(map[string]int)
	}
	s.snapshot.failures[source]++
}

// RecordSuccess resets the failure count of source after the server
// answered, and clears the last error when it came from source.
func (s *Store) RecordSuccess(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastUpdated = time.Now()
	delete(s.snapshot.failures, source)
	if s.snapshot.LastErrorSource == source {
		s.snapshot.LastError = nil
		s.snapshot.LastErrorSource = ""
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.LocomotiveServers = cloneServers(s.snapshot.LocomotiveServers)
	snap.SwitchServers = cloneServers(s.snapshot.SwitchServers)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	if s.snapshot.failures != nil {
		snap.failures = make(map[string]int, len(s.snapshot.failures))
		for k, v := range s.snapshot.failures {
			snap.failures[k] = v
		}
	}
	return snap
}

func cloneServers(servers []railroad.Server) []railroad.Server {
	if len(servers) == 0 {
		return nil
	}
	dup := make([]railroad.Server, len(servers))
	copy(dup, servers)
	return dup
}
