package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/internal/domain/providers"
	"github.com/lunchwheel/venue-roulette/internal/infrastructure/observability"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

// DefaultPreviewCount is how many transient preview picks a spin produces
// before the final draw when the caller does not ask for a specific count
const DefaultPreviewCount = 20

// RouletteSession is one re-enterable selection round. Candidates are fixed
// once a search completes; rerolls draw from the same set without touching
// providers again.
type RouletteSession struct {
	ID        string                  `json:"id"`
	State     entities.SelectionState `json:"state"`
	Center    entities.SearchCenter   `json:"center"`
	CreatedAt time.Time               `json:"created_at"`

	// generation invalidates results of operations that started before a
	// restart; a slow search must not overwrite a session the user has
	// already reset
	generation   int
	previewsLeft int
	inFlight     bool
}

// SelectionService owns the roulette sessions and their state machine:
// Idle, Searching, Presenting, Animating, Selected, Failed. Every transition
// is published to the event bus for SSE subscribers.
type SelectionService struct {
	search  *SearchService
	bus     providers.EventBus
	metrics *observability.Metrics

	mu       sync.Mutex
	sessions map[string]*RouletteSession
	rng      *rand.Rand
}

// NewSelectionService creates a new selection service. bus and metrics are
// optional.
func NewSelectionService(search *SearchService, bus providers.EventBus, metrics *observability.Metrics) *SelectionService {
	return NewSelectionServiceWithRand(search, bus, metrics,
		rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSelectionServiceWithRand creates a selection service with a caller
// provided random source, used by tests to make draws reproducible
func NewSelectionServiceWithRand(search *SearchService, bus providers.EventBus, metrics *observability.Metrics, rng *rand.Rand) *SelectionService {
	return &SelectionService{
		search:   search,
		bus:      bus,
		metrics:  metrics,
		sessions: make(map[string]*RouletteSession),
		rng:      rng,
	}
}

// CreateSession creates a session and runs its first search. On a search
// failure the session still exists in the Failed phase so the caller can
// restart it; the typed error is returned alongside.
func (s *SelectionService) CreateSession(ctx context.Context, req SearchRequest) (*RouletteSession, error) {
	session := &RouletteSession{
		ID:        uuid.New().String(),
		State:     entities.SelectionState{Phase: entities.PhaseIdle},
		Center:    req.Center,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	if err := s.Search(ctx, session.ID, req); err != nil {
		return s.snapshot(session.ID), err
	}
	return s.snapshot(session.ID), nil
}

// Search runs a venue search for an existing session. Rejected while an
// animation is in flight; a restart racing the search wins via the
// generation token.
func (s *SelectionService) Search(ctx context.Context, sessionID string, req SearchRequest) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("session not found")
	}
	if session.inFlight {
		s.mu.Unlock()
		return apperrors.NewConflictError("a spin is already in flight for this session")
	}
	session.State = entities.SelectionState{Phase: entities.PhaseSearching}
	session.Center = req.Center
	startGeneration := session.generation
	s.mu.Unlock()

	s.publish(ctx, session.ID, entities.SelectionEventPhaseChange, entities.PhaseSearching, nil, nil)

	candidates, err := s.search.Search(ctx, req)

	s.mu.Lock()
	if session.generation != startGeneration {
		// the session was restarted while the search was running; drop the
		// stale result
		s.mu.Unlock()
		return nil
	}
	if err != nil || len(candidates) == 0 {
		session.State = entities.SelectionState{Phase: entities.PhaseFailed}
		s.mu.Unlock()
		s.publish(ctx, session.ID, entities.SelectionEventPhaseChange, entities.PhaseFailed, nil, nil)
		if err == nil {
			err = apperrors.NewNoCandidatesError(0)
		}
		return err
	}
	session.State = entities.SelectionState{
		Phase:      entities.PhasePresenting,
		Candidates: candidates,
	}
	s.mu.Unlock()

	s.publish(ctx, session.ID, entities.SelectionEventPhaseChange, entities.PhasePresenting, nil, nil)
	return nil
}

// Spin enters the Animating phase from Presenting, or from Selected for a
// reroll. The caller then drains NextPreview at its own cadence and calls
// Finalize; the engine itself does no timing.
func (s *SelectionService) Spin(ctx context.Context, sessionID string, previewCount int) error {
	if previewCount <= 0 {
		previewCount = DefaultPreviewCount
	}

	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("session not found")
	}
	if session.inFlight {
		s.mu.Unlock()
		return apperrors.NewConflictError("a spin is already in flight for this session")
	}
	phase := session.State.Phase
	if phase != entities.PhasePresenting && phase != entities.PhaseSelected {
		s.mu.Unlock()
		return apperrors.NewConflictError("session has no candidates to spin")
	}
	reroll := phase == entities.PhaseSelected
	session.inFlight = true
	session.previewsLeft = previewCount
	session.State.Phase = entities.PhaseAnimating
	session.State.Final = nil
	s.mu.Unlock()

	if s.metrics != nil {
		observability.RecordSpin(ctx, s.metrics, reroll)
	}
	s.publish(ctx, sessionID, entities.SelectionEventPhaseChange, entities.PhaseAnimating, nil, nil)
	return nil
}

// NextPreview produces the next transient pick of the running animation, or
// ok=false when the preview sequence is exhausted and Finalize should run.
// Every preview is an independent uniform draw with replacement.
func (s *SelectionService) NextPreview(ctx context.Context, sessionID string) (*entities.Venue, bool, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, false, apperrors.NewNotFoundError("session not found")
	}
	if session.State.Phase != entities.PhaseAnimating {
		s.mu.Unlock()
		return nil, false, apperrors.NewConflictError("session is not animating")
	}
	if session.previewsLeft <= 0 {
		s.mu.Unlock()
		return nil, false, nil
	}
	session.previewsLeft--
	pick := session.State.Candidates[s.rng.Intn(len(session.State.Candidates))]
	session.State.Current = &pick
	s.mu.Unlock()

	s.publish(ctx, sessionID, entities.SelectionEventPreview, entities.PhaseAnimating, &pick, nil)
	return &pick, true, nil
}

// Finalize ends the animation with one uniform draw that is independent of
// the preview sequence, stores it as the final pick and enters Selected
func (s *SelectionService) Finalize(ctx context.Context, sessionID string) (*entities.Venue, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, apperrors.NewNotFoundError("session not found")
	}
	if session.State.Phase != entities.PhaseAnimating {
		s.mu.Unlock()
		return nil, apperrors.NewConflictError("session is not animating")
	}
	final := session.State.Candidates[s.rng.Intn(len(session.State.Candidates))]
	session.State.Final = &final
	session.State.Current = nil
	session.State.Phase = entities.PhaseSelected
	session.previewsLeft = 0
	session.inFlight = false
	s.mu.Unlock()

	s.publish(ctx, sessionID, entities.SelectionEventFinal, entities.PhaseSelected, nil, &final)
	return &final, nil
}

// Reroll re-runs the animation over the same candidates without re-querying
// providers and yields a new independent final pick
func (s *SelectionService) Reroll(ctx context.Context, sessionID string, previewCount int) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("session not found")
	}
	if session.State.Phase != entities.PhaseSelected {
		s.mu.Unlock()
		return apperrors.NewConflictError("only a selected session can be rerolled")
	}
	s.mu.Unlock()

	return s.Spin(ctx, sessionID, previewCount)
}

// Restart clears the session back to Idle. Pending operations from before
// the restart see a bumped generation and discard their results.
func (s *SelectionService) Restart(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("session not found")
	}
	session.generation++
	session.previewsLeft = 0
	session.inFlight = false
	session.State = entities.SelectionState{Phase: entities.PhaseIdle}
	s.mu.Unlock()

	s.publish(ctx, sessionID, entities.SelectionEventPhaseChange, entities.PhaseIdle, nil, nil)
	return nil
}

// GetSession returns a snapshot of a session
func (s *SelectionService) GetSession(sessionID string) (*RouletteSession, error) {
	snapshot := s.snapshot(sessionID)
	if snapshot == nil {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	return snapshot, nil
}

func (s *SelectionService) snapshot(sessionID string) *RouletteSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	copied := *session
	return &copied
}

func (s *SelectionService) publish(ctx context.Context, sessionID string, eventType entities.SelectionEventType, phase entities.SelectionPhase, current, final *entities.Venue) {
	if s.bus == nil {
		return
	}
	event := &entities.SelectionEvent{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		EventType: eventType,
		Timestamp: time.Now(),
		Phase:     phase,
		Current:   current,
		Final:     final,
	}
	if err := s.bus.Publish(ctx, providers.GetSessionChannel(sessionID), event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to publish selection event")
	}
}
