package spinlock

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var _ sync.Locker = (*Spinlock)(nil)

func TestSpinlock(t *testing.T) {
	var lock Spinlock

	if !lock.TryLock() {
		t.Fatal("TryLock() on fresh lock should succeed")
	}
	if lock.TryLock() {
		t.Error("TryLock() on held lock should fail")
	}
	if !lock.IsLocked() {
		t.Error("IsLocked() should be true while held")
	}
	lock.Unlock()

	if lock.IsLocked() {
		t.Error("IsLocked() should be false after Unlock()")
	}

	lock.Lock()
	if lock.TryLock() {
		t.Error("TryLock() should fail while Lock() is held")
	}
	lock.Unlock()
}

func TestSpinlock_UnlockUnlocked(t *testing.T) {
	var lock Spinlock

	defer func() {
		if r := recover(); r == nil {
			t.Error("Unlock() of unlocked lock should panic")
		}
	}()
	lock.Unlock()
}

func TestSpinlock_DoReleasesOnPanic(t *testing.T) {
	var lock Spinlock

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("panic in Do() body should propagate")
			}
		}()
		lock.Do(func() {
			panic("boom")
		})
	}()

	if lock.IsLocked() {
		t.Error("Do() should release the lock when the body panics")
	}
}

// TestSpinlock_RacingTryLock releases N goroutines at once against a fresh
// lock; exactly one TryLock may win.
func TestSpinlock_RacingTryLock(t *testing.T) {
	counts := []int{1, 2, 4, runtime.GOMAXPROCS(0), 32}

	for _, n := range counts {
		t.Run(fmt.Sprintf("goroutines=%d", n), func(t *testing.T) {
			var lock Spinlock
			for trial := 0; trial < 1000; trial++ {
				var wg, ready sync.WaitGroup
				var won atomic.Int64
				gate := make(chan struct{})
				ready.Add(n)
				for i := 0; i < n; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						ready.Done()
						<-gate
						if lock.TryLock() {
							won.Add(1)
						}
					}()
				}
				ready.Wait()
				close(gate)
				wg.Wait()

				if got := won.Load(); got != 1 {
					t.Fatalf("trial %d: %d goroutines acquired the lock, want 1", trial, got)
				}
				lock.Unlock()
			}
		})
	}
}

func TestSpinlock_Wait(t *testing.T) {
	var lock Spinlock
	lock.Wait() // free lock: returns at once

	lock.Lock()
	var returned atomic.Bool
	done := make(chan struct{})
	go func() {
		lock.Wait()
		returned.Store(true)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if returned.Load() {
		t.Fatal("Wait() returned while the lock was held")
	}
	lock.Unlock()
	<-done

	if lock.IsLocked() {
		t.Error("Wait() must not acquire the lock")
	}
}

func TestSpinlock_MutualExclusion(t *testing.T) {
	var (
		lock    Spinlock
		wg      sync.WaitGroup
		counter int
	)
	workers := runtime.GOMAXPROCS(0) * 2
	iterations := 20000

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				lock.Lock()
				counter++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()

	if counter != workers*iterations {
		t.Errorf("counter = %d, want %d", counter, workers*iterations)
	}
}

func BenchmarkSpinlock_Uncontended(b *testing.B) {
	var lock Spinlock
	for i := 0; i < b.N; i++ {
		lock.Lock()
		lock.Unlock()
	}
}

func BenchmarkSpinlock_Parallel(b *testing.B) {
	var (
		lock    Spinlock
		counter int
	)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			lock.Do(func() {
				counter++
			})
		}
	})
	_ = counter
}
