package acquisition

import (
	"sync"
	"testing"
	"time"
)

func TestBatcher(t *testing.T) {
	t.Run("size_threshold_triggers_flush", func(t *testing.T) {
		var mu sync.Mutex
		var batches [][]int

		b := newBatcher[int](3, time.Hour, func(items []int) {
			mu.Lock()
			defer mu.Unlock()
			batches = append(batches, items)
		})
		defer b.stop()

		b.add(1)
		b.add(2)
		b.add(3) // should trigger flush

		time.Sleep(50 * time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		if len(batches) != 1 {
			t.Fatalf("expected 1 flush, got %d", len(batches))
		}
		if len(batches[0]) != 3 || batches[0][0] != 1 || batches[0][1] != 2 || batches[0][2] != 3 {
			t.Errorf("flushed items = %v, want [1 2 3]", batches[0])
		}
	})

	t.Run("under_threshold_no_immediate_flush", func(t *testing.T) {
		var mu sync.Mutex
		var flushed bool

		b := newBatcher[int](10, time.Hour, func(items []int) {
			mu.Lock()
			defer mu.Unlock()
			flushed = true
		})
		defer b.stop()

		b.add(1)
		b.add(2)

		time.Sleep(50 * time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		if flushed {
			t.Error("expected no flush under threshold")
		}
	})

	t.Run("stop_flushes_remaining_and_blocks_adds", func(t *testing.T) {
		var mu sync.Mutex
		var batches [][]int

		b := newBatcher[int](100, time.Hour, func(items []int) {
			mu.Lock()
			defer mu.Unlock()
			batches = append(batches, items)
		})

		b.add(10)
		b.add(20)
		b.stop()

		b.add(30) // dropped: stopped

		mu.Lock()
		defer mu.Unlock()
		if len(batches) != 1 {
			t.Fatalf("expected 1 flush on stop, got %d", len(batches))
		}
		if len(batches[0]) != 2 || batches[0][0] != 10 || batches[0][1] != 20 {
			t.Errorf("flushed items = %v, want [10 20]", batches[0])
		}
	})

	t.Run("time_based_flush", func(t *testing.T) {
		var mu sync.Mutex
		var batches [][]int

		b := newBatcher[int](100, 50*time.Millisecond, func(items []int) {
			mu.Lock()
			defer mu.Unlock()
			batches = append(batches, items)
		})
		defer b.stop()

		b.add(1)
		b.add(2)

		time.Sleep(150 * time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		if len(batches) != 1 {
			t.Fatalf("expected 1 time-based flush, got %d", len(batches))
		}
		if len(batches[0]) != 2 || batches[0][0] != 1 || batches[0][1] != 2 {
			t.Errorf("flushed items = %v, want [1 2]", batches[0])
		}
	})
}
