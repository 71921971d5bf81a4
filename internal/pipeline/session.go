package pipeline

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/model"
)

// Session is the stateful container for one ingest operation, from upload
// to terminal state. It owns the document bytes and the artifact until a
// terminal state is reached.
type Session struct {
	ID string

	mu          sync.Mutex
	docName     string
	docBytes    []byte
	docDigest   string
	stage       constants.Stage
	verdict     *model.Verdict
	artifact    *model.Artifact
	failure     error
	note        string
	createdAt   time.Time
	lastTouched time.Time
	running     bool
	cancelled   bool
	tentative   string // canonical ISBN of a tentative registry entry, if any

	events *broadcaster
}

// Snapshot is the externally visible session state.
type Snapshot struct {
	ID          string          `json:"id"`
	DocName     string          `json:"document"`
	DocDigest   string          `json:"source_digest"`
	DocBytes    int             `json:"byte_length"`
	Stage       constants.Stage `json:"stage"`
	Verdict     *model.Verdict  `json:"verdict,omitempty"`
	Error       string          `json:"error,omitempty"`
	ErrorCode   string          `json:"error_code,omitempty"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	LastTouched time.Time       `json:"last_touched_at"`
}

func newSession(name string, blob []byte) *Session {
	digest := sha256.Sum256(blob)
	now := time.Now().UTC()
	return &Session{
		ID:          ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		docName:     name,
		docBytes:    blob,
		docDigest:   hex.EncodeToString(digest[:]),
		stage:       constants.StageCreated,
		createdAt:   now,
		lastTouched: now,
		events:      newBroadcaster(),
	}
}

// advance moves the session forward and emits a progress event. Terminal
// states are absorbing, and forward stages never regress.
func (s *Session) advance(stage constants.Stage, percent int, note string) error {
	s.mu.Lock()
	if s.stage.Terminal() {
		s.mu.Unlock()
		return common.Errorf(common.CodeBadSession, "session %s already terminal (%s)", s.ID, s.stage)
	}
	if idx := stage.Index(); idx >= 0 && idx < s.stage.Index() {
		s.mu.Unlock()
		return common.Errorf(common.CodeBadSession, "stage regression %s -> %s", s.stage, stage)
	}
	s.stage = stage
	s.lastTouched = time.Now().UTC()
	if note != "" {
		s.note = note
	}
	terminal := stage.Terminal()
	s.mu.Unlock()

	s.events.publish(ProgressEvent{
		SessionID: s.ID,
		Stage:     stage,
		Percent:   percent,
		Note:      note,
		At:        time.Now().UTC(),
	})
	if terminal {
		s.events.close()
	}
	return nil
}

// progress emits an intra-stage update without changing the stage.
func (s *Session) progress(percent int, note string) {
	s.mu.Lock()
	stage := s.stage
	s.lastTouched = time.Now().UTC()
	s.mu.Unlock()
	s.events.publish(ProgressEvent{
		SessionID: s.ID,
		Stage:     stage,
		Percent:   percent,
		Note:      note,
		At:        time.Now().UTC(),
	})
}

// fail moves the session to a terminal failure stage.
func (s *Session) fail(stage constants.Stage, err error) {
	s.mu.Lock()
	s.failure = err
	s.mu.Unlock()
	_ = s.advance(stage, 100, common.CodeOf(err))
}

func (s *Session) markCancelled() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

func (s *Session) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Session) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *Session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:          s.ID,
		DocName:     s.docName,
		DocDigest:   s.docDigest,
		DocBytes:    len(s.docBytes),
		Stage:       s.stage,
		Verdict:     s.verdict,
		Note:        s.note,
		CreatedAt:   s.createdAt,
		LastTouched: s.lastTouched,
	}
	if s.failure != nil {
		snap.Error = s.failure.Error()
		snap.ErrorCode = common.CodeOf(s.failure)
	}
	return snap
}

func (s *Session) currentStage() constants.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// release drops the document bytes once a terminal state is reached; store
// adapters have taken their copies by then.
func (s *Session) release() {
	s.mu.Lock()
	s.docBytes = nil
	s.mu.Unlock()
}

// Manager is the session registry, the sole process-wide mutable state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewManager builds an empty session registry.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{sessions: make(map[string]*Session), logger: logger}
}

func (m *Manager) add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

func (m *Manager) get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, common.Errorf(common.CodeBadSession, "unknown session %q", id)
	}
	return s, nil
}

// Snapshots lists all live sessions, newest first by creation.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Snapshot, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Sweep removes sessions idle past ttl. Running sessions are never
// removed, whatever their age.
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		expired := s.lastTouched.Before(cutoff) && !s.running
		s.mu.Unlock()
		if expired {
			s.events.close()
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("sessions.swept", "removed", removed)
	}
	return removed
}

// StartSweeper runs Sweep periodically until done is closed.
func (m *Manager) StartSweeper(done <-chan struct{}, ttl, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.Sweep(ttl)
			}
		}
	}()
}
