package memory

import (
	"math/rand"
	"sync"
	"time"

	"dailyquest-service/internal/domain"
)

// Store is an in-memory implementation of every app repository. One mutex guards
// all tables so multi-table writes are atomic, matching a database transaction.
type Store struct {
	clock func() time.Time
	rnd   *rand.Rand

	mu          sync.RWMutex
	nextID      int64
	questions   map[int64]domain.Question
	answers     map[answerKey]domain.Answer
	users       map[int64]domain.User
	groups      map[int64]domain.Group
	members     map[int64]map[int64]int64 // group -> user -> last read message id
	messages    map[int64][]domain.Message
	friendships map[int64]domain.Friendship
}

type answerKey struct {
	userID     int64
	questionID int64
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock is test-only for deterministic timestamps.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		clock:       now,
		rnd:         rand.New(rand.NewSource(now().UnixNano())),
		questions:   make(map[int64]domain.Question),
		answers:     make(map[answerKey]domain.Answer),
		users:       make(map[int64]domain.User),
		groups:      make(map[int64]domain.Group),
		members:     make(map[int64]map[int64]int64),
		messages:    make(map[int64][]domain.Message),
		friendships: make(map[int64]domain.Friendship),
	}
}

func (s *Store) idLocked() int64 {
	s.nextID++
	return s.nextID
}
