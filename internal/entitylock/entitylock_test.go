package entitylock

import (
	"sync"
	"testing"
)

func TestLockSerializesSameEntity(t *testing.T) {
	m := &Map{}
	var counter int
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("entity-a")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d (race unguarded)", counter)
	}
}

func TestLockIsPerEntity(t *testing.T) {
	m := &Map{}
	unlockA := m.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := m.Lock("b")
		unlockB()
		close(done)
	}()
	<-done // must not deadlock: distinct entities don't share a mutex
	unlockA()
}
