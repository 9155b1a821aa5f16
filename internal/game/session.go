package game

import (
	"errors"
	"math/rand"
	"sync"

	"quizroom/internal/players"
	"quizroom/internal/questions"
	"quizroom/internal/rooms"
)

var (
	ErrNoActiveGame        = errors.New("no active game in this room")
	ErrGameAlreadyActive   = errors.New("game already active in this room")
	ErrNoCurrentQuestion   = errors.New("no current question")
	ErrInsufficientPlayers = errors.New("at least 2 players are required")
	ErrNotReady            = errors.New("not all players are ready")
)

const StatusActive = "active"

// MinPlayers is the smallest room that can start a game.
const MinPlayers = 2

// question is the server-side shape, including the answer key.
type question struct {
	Category string
	Prompt   string
	Options  []string
	Correct  int
	Level    int
}

// QuestionView is the client-facing shape. The correct index is withheld
// so the answer can only be judged server-side.
type QuestionView struct {
	Category string   `json:"category"`
	Prompt   string   `json:"question"`
	Options  []string `json:"options"`
	Level    int      `json:"level"`
}

func (q *question) view() *QuestionView {
	return &QuestionView{
		Category: q.Category,
		Prompt:   q.Prompt,
		Options:  q.Options,
		Level:    q.Level,
	}
}

// Standing is one player's row in a session snapshot.
type Standing struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Level int    `json:"level"`
}

// Snapshot is the serializable view of a session.
type Snapshot struct {
	Status    string        `json:"status"`
	Round     int           `json:"round"`
	Question  *QuestionView `json:"question,omitempty"`
	Standings []Standing    `json:"standings"`
}

// AnswerResult reports the outcome of a single submitted answer.
type AnswerResult struct {
	Correct        bool
	Score          int
	LevelComplete  bool
	CompletedLevel int
	NewLevel       int
	Snapshot       *Snapshot
}

// ledger tracks which questions a client has already been served at its
// current level, so draws within a level never repeat.
type ledger struct {
	level int
	asked map[int]bool
}

type session struct {
	category string
	round    int
	current  *question
	served   map[string]*ledger // client id -> ledger
}

// Controller owns the 0-or-1 active session per room and its transition
// rules. All mutations are serialized under one lock, so concurrent
// messages touching the same session cannot interleave mid-transition.
type Controller struct {
	mu               sync.Mutex
	sessions         map[string]*session
	categories       map[string]string // room code -> chosen category
	players          *players.Store
	rooms            *rooms.Store
	bank             questions.Provider
	pointsPerCorrect int
}

func NewController(ps *players.Store, rs *rooms.Store, bank questions.Provider, pointsPerCorrect int) *Controller {
	return &Controller{
		sessions:         make(map[string]*session),
		categories:       make(map[string]string),
		players:          ps,
		rooms:            rs,
		bank:             bank,
		pointsPerCorrect: pointsPerCorrect,
	}
}

// SetCategory records the quiz category chosen when the room was created.
func (c *Controller) SetCategory(code, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[code] = category
}

func (c *Controller) Category(code string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cat, ok := c.categories[code]; ok && cat != "" {
		return cat
	}
	return questions.DefaultCategory
}

func (c *Controller) Active(code string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.sessions[code]
	return exists
}

// CanStart reports whether a game may start: at least MinPlayers members
// and every non-creator member ready. The creator is implicitly ready.
func (c *Controller) CanStart(code string) error {
	members := c.rooms.Members(code)
	return c.checkStart(code, members)
}

func (c *Controller) checkStart(code string, members []string) error {
	if len(members) < MinPlayers {
		return ErrInsufficientPlayers
	}
	for i, id := range members {
		if i == 0 {
			continue // creator is exempt from ready-gating
		}
		p, err := c.players.Get(id)
		if err != nil {
			continue // mid-disconnect member, excluded from gating
		}
		if !p.Ready {
			return ErrNotReady
		}
	}
	return nil
}

// Start validates the ready gate, resets every member to score 0 /
// level 1, draws the opening question for the oldest member, and
// installs the session as active.
func (c *Controller) Start(code string) (*Snapshot, error) {
	members := c.rooms.Members(code)
	if err := c.checkStart(code, members); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.sessions[code]; exists {
		return nil, ErrGameAlreadyActive
	}

	c.players.ResetProgress(members)

	sess := &session{
		category: c.categoryLocked(code),
		round:    1,
		served:   make(map[string]*ledger),
	}
	q, _ := c.drawLocked(sess, members[0])
	sess.current = q
	c.sessions[code] = sess

	return c.snapshotLocked(code, sess), nil
}

// Answer judges a submitted option against the current question, awards
// level × pointsPerCorrect on a match, and installs the next question
// drawn for the answering client's level.
func (c *Controller) Answer(code, clientID string, chosen int) (*AnswerResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, exists := c.sessions[code]
	if !exists {
		return nil, ErrNoActiveGame
	}
	if sess.current == nil {
		return nil, ErrNoCurrentQuestion
	}

	result := &AnswerResult{
		Correct: chosen == sess.current.Correct,
	}
	if result.Correct {
		if p, err := c.players.Get(clientID); err == nil {
			c.players.AddScore(clientID, p.Level*c.pointsPerCorrect)
		}
	}
	if p, err := c.players.Get(clientID); err == nil {
		result.Score = p.Score
	}

	next, leveled := c.drawLocked(sess, clientID)
	if leveled > 0 {
		result.LevelComplete = true
		result.CompletedLevel = leveled
		result.NewLevel = leveled + 1
	}
	sess.current = next
	sess.round++

	result.Snapshot = c.snapshotLocked(code, sess)
	return result, nil
}

// Current returns the session's current question view, for clients that
// need it re-sent.
func (c *Controller) Current(code string) (*QuestionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, exists := c.sessions[code]
	if !exists {
		return nil, ErrNoActiveGame
	}
	if sess.current == nil {
		return nil, ErrNoCurrentQuestion
	}
	return sess.current.view(), nil
}

// SnapshotOf returns the current session snapshot without mutating it.
func (c *Controller) SnapshotOf(code string) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, exists := c.sessions[code]
	if !exists {
		return nil, ErrNoActiveGame
	}
	return c.snapshotLocked(code, sess), nil
}

// End discards the session and category for a destroyed room. Idempotent.
func (c *Controller) End(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, code)
	delete(c.categories, code)
}

// Forget drops a client's served-question ledger when it leaves the room.
func (c *Controller) Forget(code, clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sess, exists := c.sessions[code]; exists {
		delete(sess.served, clientID)
	}
}

func (c *Controller) categoryLocked(code string) string {
	if cat, ok := c.categories[code]; ok && cat != "" {
		return cat
	}
	return questions.DefaultCategory
}

// drawLocked picks an unserved question for the client's current level.
// When the level is exhausted the client levels up, its ledger resets,
// and the draw retries at the new level. Returns the completed level
// (or 0) alongside the question; a nil question means the bank has no
// more questions for the client.
func (c *Controller) drawLocked(sess *session, clientID string) (*question, int) {
	p, err := c.players.Get(clientID)
	if err != nil {
		return nil, 0
	}
	level := p.Level

	led := sess.served[clientID]
	if led == nil || led.level != level {
		led = &ledger{level: level, asked: make(map[int]bool)}
		sess.served[clientID] = led
	}

	qs := c.bank.QuestionsFor(sess.category, level)
	available := make([]int, 0, len(qs))
	for i := range qs {
		if !led.asked[i] {
			available = append(available, i)
		}
	}

	if len(available) > 0 {
		idx := available[rand.Intn(len(available))]
		led.asked[idx] = true
		q := qs[idx]
		return &question{
			Category: sess.category,
			Prompt:   q.Prompt,
			Options:  q.Options,
			Correct:  q.Correct,
			Level:    level,
		}, 0
	}

	if len(qs) == 0 {
		// Nothing at this level at all: the bank is exhausted for this
		// client, no further level-up.
		return nil, 0
	}

	// Level completed: bump the client and retry once at the new level.
	completed := level
	c.players.SetLevel(clientID, level+1)
	sess.served[clientID] = &ledger{level: level + 1, asked: make(map[int]bool)}

	next := c.bank.QuestionsFor(sess.category, level+1)
	if len(next) == 0 {
		return nil, completed
	}
	idx := rand.Intn(len(next))
	sess.served[clientID].asked[idx] = true
	q := next[idx]
	return &question{
		Category: sess.category,
		Prompt:   q.Prompt,
		Options:  q.Options,
		Correct:  q.Correct,
		Level:    level + 1,
	}, completed
}

func (c *Controller) snapshotLocked(code string, sess *session) *Snapshot {
	members := c.rooms.Members(code)
	standings := make([]Standing, 0, len(members))
	for _, id := range members {
		p, err := c.players.Get(id)
		if err != nil {
			continue
		}
		standings = append(standings, Standing{
			ID:    p.ID,
			Name:  p.Name,
			Score: p.Score,
			Level: p.Level,
		})
	}

	snap := &Snapshot{
		Status:    StatusActive,
		Round:     sess.round,
		Standings: standings,
	}
	if sess.current != nil {
		snap.Question = sess.current.view()
	}
	return snap
}
