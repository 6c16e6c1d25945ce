package viewmodel_test

import (
	"slices"
	"sync"
	"testing"

	"github.com/mkrupp/affinity/internal/viewmodel"
)

type counter struct {
	N int
}

func TestStore_PublishesInOrder(t *testing.T) {
	t.Parallel()

	store := viewmodel.NewStore("test:counter", counter{})

	var seen []int

	unsubscribe, err := store.Subscribe(func(c counter) {
		seen = append(seen, c.N)

		if got := store.Snapshot().N; got != c.N {
			t.Errorf("Snapshot() inside subscriber = %d, want %d", got, c.N)
		}
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	for range 3 {
		store.Update(func(c *counter) bool {
			c.N++

			return true
		})
	}

	changed := store.Update(func(*counter) bool { return false })
	if changed {
		t.Error("Update() reported a change for a no-op")
	}

	unsubscribe()

	store.Update(func(c *counter) bool {
		c.N++

		return true
	})

	want := []int{1, 2, 3}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}

	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen = %v, want %v", seen, want)
		}
	}

	if got := store.Snapshot().N; got != 4 {
		t.Errorf("Snapshot() = %d, want 4", got)
	}
}

func TestStore_ConcurrentUpdatesStayOrdered(t *testing.T) {
	t.Parallel()

	store := viewmodel.NewStore("test:concurrent", counter{})

	var (
		mu   sync.Mutex
		last int
		bad  bool
	)

	if _, err := store.Subscribe(func(c counter) {
		mu.Lock()
		defer mu.Unlock()

		if c.N != last+1 {
			bad = true
		}

		last = c.N
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			store.Update(func(c *counter) bool {
				c.N++

				return true
			})
		}()
	}

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()

	if bad || last != 50 {
		t.Errorf("publications out of order: last = %d, bad = %v", last, bad)
	}
}

func TestStore_UnsubscribeRemovesOnlyItsOwnSubscriber(t *testing.T) {
	t.Parallel()

	store := viewmodel.NewStore("test:unsubscribe", counter{})

	counts := make([]int, 3)
	unsubs := make([]func(), 3)

	for i := range 3 {
		unsubscribe, err := store.Subscribe(func(counter) {
			counts[i]++
		})
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}

		unsubs[i] = unsubscribe
	}

	unsubs[1]()
	unsubs[1]()

	store.Update(func(c *counter) bool {
		c.N++

		return true
	})

	if want := []int{1, 0, 1}; !slices.Equal(counts, want) {
		t.Errorf("counts = %v, want %v", counts, want)
	}

	unsubs[0]()
	unsubs[2]()

	store.Update(func(c *counter) bool {
		c.N++

		return true
	})

	if want := []int{1, 0, 1}; !slices.Equal(counts, want) {
		t.Errorf("counts after unsubscribing all = %v, want %v", counts, want)
	}
}
