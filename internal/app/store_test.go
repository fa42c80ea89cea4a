package app

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spark-career/spark/internal/platform/cache"
	"github.com/spark-career/spark/internal/platform/testenv"
	"github.com/spark-career/spark/internal/quiz"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration) (*Store, *MemoryBackend, *clock) {
	c := &clock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	backend := NewMemoryBackend()
	backend.now = c.Now
	store := NewStore(backend, ttl)
	store.now = c.Now
	return store, backend, c
}

func TestStore_CreateAndGet(t *testing.T) {
	store, _, _ := newTestStore(time.Hour)
	ctx := t.Context()

	created, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Page != PageHome {
		t.Errorf("Page = %q, want %q", created.Page, PageHome)
	}
	if len(created.Chat.Messages) != 1 {
		t.Errorf("new transcript has %d messages, want the greeting only", len(created.Chat.Messages))
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store, _, _ := newTestStore(time.Hour)
	for _, id := range []string{"", "not-a-uuid", "6f1c1e0a-5d8e-4b4e-9b0a-3f5f5a1c2d3e"} {
		if _, err := store.Get(t.Context(), id); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrSessionNotFound", id, err)
		}
	}
}

func TestStore_IdleExpiry(t *testing.T) {
	store, backend, c := newTestStore(30 * time.Minute)
	ctx := t.Context()

	st, err := store.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// Each read extends the lifetime.
	c.Advance(20 * time.Minute)
	if _, err := store.Get(ctx, st.ID); err != nil {
		t.Fatalf("Get() after 20m error = %v", err)
	}
	c.Advance(20 * time.Minute)
	if _, err := store.Get(ctx, st.ID); err != nil {
		t.Fatalf("Get() after touch error = %v", err)
	}

	c.Advance(30 * time.Minute)
	if _, err := store.Get(ctx, st.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get() after idle ttl error = %v, want ErrSessionNotFound", err)
	}

	expired := backend.Sweep()
	if len(expired) != 1 || expired[0] != st.ID {
		t.Errorf("Sweep() = %v, want [%s]", expired, st.ID)
	}
	if backend.Len() != 0 {
		t.Errorf("Len() = %d after sweep, want 0", backend.Len())
	}
}

func TestStore_UpdateErrorDiscardsChanges(t *testing.T) {
	store, _, _ := newTestStore(time.Hour)
	ctx := t.Context()
	st, _ := store.Create(ctx)

	boom := errors.New("boom")
	_, err := store.Update(ctx, st.ID, func(s *State) error {
		s.Page = PageExams
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}

	got, _ := store.Get(ctx, st.ID)
	if got.Page != PageHome {
		t.Errorf("Page = %q, want unchanged %q", got.Page, PageHome)
	}
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store, _, _ := newTestStore(time.Hour)
	ctx := t.Context()
	st, _ := store.Create(ctx)

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, st.ID, func(s *State) error {
				s.Quizzes[fmt.Sprint(i)] = &quiz.State{}
				return nil
			})
			if err != nil {
				t.Errorf("Update() error = %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := store.Get(ctx, st.ID)
	if len(got.Quizzes) != n {
		t.Errorf("len(Quizzes) = %d, want %d (lost updates)", len(got.Quizzes), n)
	}
	if len(store.locks.locks) != 0 {
		t.Errorf("%d session locks left behind", len(store.locks.locks))
	}
}

func TestMemoryBackend_RunSweeper(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := t.Context()
	if err := backend.Save(ctx, "a", []byte("{}"), time.Millisecond); err != nil {
		t.Fatal(err)
	}

	got := make(chan string, 1)
	go backend.RunSweeper(ctx, 5*time.Millisecond, func(id string) { got <- id })

	select {
	case id := <-got:
		if id != "a" {
			t.Errorf("expired id = %q, want a", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never reported the expired session")
	}
}

func TestRedisBackend_Integration(t *testing.T) {
	url := testenv.Redis(t)
	ctx := t.Context()

	c, err := cache.New(ctx, url)
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	defer c.Close()

	store := NewStore(NewRedisBackend(c), time.Minute)
	st, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := store.Update(ctx, st.ID, func(s *State) error {
		s.Page = PageContact
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := store.Get(ctx, st.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Page != PageContact {
		t.Errorf("Page = %q, want %q", got.Page, PageContact)
	}

	if err := c.Delete(ctx, sessionKey(st.ID)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, st.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrSessionNotFound", err)
	}
}
