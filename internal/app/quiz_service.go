package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gamerec-quiz-service/internal/domain"
	"gamerec-quiz-service/internal/match"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(sessionID, catalogID string, totalQuestions int) *Session
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// CatalogRepository loads question/game catalogs (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// QuizService contains the core quiz use cases: walking a session through the
// question list, accumulating preference tags, and ranking the catalog's games
// once the quiz is complete.
type QuizService struct {
	sessions SessionRepository
	catalogs CatalogRepository
}

func NewQuizService(store SessionRepository, catalogs CatalogRepository) *QuizService {
	return &QuizService{sessions: store, catalogs: catalogs}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id, catalogID string, totalQuestions int) *Session {
	return newSession(id, catalogID, totalQuestions)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id, catalogID string, totalQuestions int, now func() time.Time) *Session {
	return newSessionWithClock(id, catalogID, totalQuestions, now)
}

// Start creates (or resumes) a quiz session against a catalog. A blank
// sessionID gets a generated one; callers cannot start against an unknown
// catalog.
func (s *QuizService) Start(ctx context.Context, catalogID, sessionID string) (domain.Progress, error) {
	catalog, err := s.catalogs.GetCatalog(ctx, catalogID)
	if err != nil {
		return domain.Progress{}, err
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	session := s.sessions.GetOrCreate(sessionID, catalogID, len(catalog.Questions))
	return session.snapshot(), nil
}

// CurrentQuestion returns the question the session is waiting on.
func (s *QuizService) CurrentQuestion(ctx context.Context, sessionID string) (domain.Question, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Question{}, domain.ErrSessionNotFound
	}

	catalog, err := s.catalogs.GetCatalog(ctx, session.catalogID)
	if err != nil {
		return domain.Question{}, err
	}
	return session.currentQuestion(catalog)
}

// Answer records the selected option for the current question, appending its
// tags to the session's profile and advancing the quiz. The final answer
// flips the session to complete.
func (s *QuizService) Answer(ctx context.Context, sessionID string, optionIndex int) (domain.Progress, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Progress{}, domain.ErrSessionNotFound
	}

	catalog, err := s.catalogs.GetCatalog(ctx, session.catalogID)
	if err != nil {
		return domain.Progress{}, err
	}
	return session.answer(catalog, optionIndex)
}

// Reset returns the session to its initial state; legal from any state.
func (s *QuizService) Reset(_ context.Context, sessionID string) (domain.Progress, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Progress{}, domain.ErrSessionNotFound
	}
	return session.reset(), nil
}

// Results ranks the catalog's games against the session's accumulated tags.
// It refuses to score a quiz that is still in progress. topN of zero falls
// back to match.DefaultTopN.
func (s *QuizService) Results(ctx context.Context, sessionID string, topN int) ([]domain.ScoredGame, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	snap := session.snapshot()
	if !snap.Complete {
		return nil, domain.ErrQuizInProgress
	}

	catalog, err := s.catalogs.GetCatalog(ctx, session.catalogID)
	if err != nil {
		return nil, err
	}

	if topN == 0 {
		topN = match.DefaultTopN
	}
	return match.Recommend(snap.Tags, catalog.Games, topN), nil
}

// Subscribe returns a channel that receives progress snapshots for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Progress, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// End drops the session. Called when the owning connection goes away.
func (s *QuizService) End(_ context.Context, sessionID string) {
	s.sessions.Delete(sessionID)
}

// Session is the in-memory state machine for one quiz run: the current
// question index, the accumulated tag profile, and the completion flag.
// It is either in-progress (index < totalQuestions) or complete; reset is
// the only way back.
type Session struct {
	id             string
	catalogID      string
	totalQuestions int
	createdAt      time.Time
	now            func() time.Time

	mu          sync.RWMutex
	index       int
	tags        []string
	complete    bool
	subscribers map[chan domain.Progress]struct{}
}

func newSession(id, catalogID string, totalQuestions int) *Session {
	return newSessionWithClock(id, catalogID, totalQuestions, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(id, catalogID string, totalQuestions int, now func() time.Time) *Session {
	return &Session{
		id:             id,
		catalogID:      catalogID,
		totalQuestions: totalQuestions,
		createdAt:      now(),
		now:            now,
		subscribers:    make(map[chan domain.Progress]struct{}),
	}
}

// CatalogID reports which catalog the session runs against.
func (s *Session) CatalogID() string {
	return s.catalogID
}

func (s *Session) currentQuestion(catalog domain.Catalog) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.complete {
		return domain.Question{}, domain.ErrQuizComplete
	}
	if s.index >= len(catalog.Questions) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return catalog.Questions[s.index], nil
}

func (s *Session) answer(catalog domain.Catalog, optionIndex int) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.complete {
		return domain.Progress{}, domain.ErrQuizComplete
	}
	if s.index >= len(catalog.Questions) {
		return domain.Progress{}, domain.ErrQuestionNotFound
	}

	question := catalog.Questions[s.index]
	if optionIndex < 0 || optionIndex >= len(question.Options) {
		return domain.Progress{}, domain.ErrOptionNotFound
	}

	s.tags = append(s.tags, question.Options[optionIndex].Tags...)
	if s.index == len(catalog.Questions)-1 {
		s.complete = true
	} else {
		s.index++
	}
	return s.broadcastLocked(), nil
}

func (s *Session) reset() domain.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = 0
	s.tags = nil
	s.complete = false
	return s.broadcastLocked()
}

func (s *Session) snapshot() domain.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) subscribe() (<-chan domain.Progress, func()) {
	ch := make(chan domain.Progress, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.Progress {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow subscriber never blocks the answer path.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.Progress {
	tags := make([]string, len(s.tags))
	copy(tags, s.tags)

	// Display index: while in progress this is the question being asked;
	// once complete it equals the total.
	index := s.index
	if s.complete {
		index = s.totalQuestions
	}

	return domain.Progress{
		SessionID:      s.id,
		CatalogID:      s.catalogID,
		QuestionIndex:  index,
		TotalQuestions: s.totalQuestions,
		Tags:           tags,
		Complete:       s.complete,
		UpdatedAt:      s.now(),
	}
}
