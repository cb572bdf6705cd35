package pricecache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheGetPut(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("RELIANCE.NS"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("RELIANCE.NS", 2850.5)
	price, ok := c.Get("RELIANCE.NS")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if price != 2850.5 {
		t.Errorf("expected 2850.5, got %v", price)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(time.Minute)
	base := time.Now()
	now := base
	c.now = func() time.Time { return now }

	c.Put("NIFTYBEES.NS", 225.0)
	if _, ok := c.Get("NIFTYBEES.NS"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = base.Add(2 * time.Minute)
	if _, ok := c.Get("NIFTYBEES.NS"); ok {
		t.Fatal("expected miss after TTL elapsed")
	}
}

func TestGetOrFetch(t *testing.T) {
	t.Run("fetches once then serves from cache", func(t *testing.T) {
		c := New(time.Minute)
		var calls int32

		fetch := func() (float64, error) {
			atomic.AddInt32(&calls, 1)
			return 145.25, nil
		}

		for i := 0; i < 3; i++ {
			price, err := c.GetOrFetch("120503", fetch)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if price != 145.25 {
				t.Errorf("expected 145.25, got %v", price)
			}
		}

		if got := atomic.LoadInt32(&calls); got != 1 {
			t.Errorf("expected 1 fetch, got %d", got)
		}
	})

	t.Run("does not cache failures", func(t *testing.T) {
		c := New(time.Minute)
		var calls int32
		wantErr := errors.New("upstream down")

		fetch := func() (float64, error) {
			atomic.AddInt32(&calls, 1)
			if atomic.LoadInt32(&calls) == 1 {
				return 0, wantErr
			}
			return 99.0, nil
		}

		if _, err := c.GetOrFetch("SGBMAR29", fetch); !errors.Is(err, wantErr) {
			t.Fatalf("expected upstream error, got %v", err)
		}
		price, err := c.GetOrFetch("SGBMAR29", fetch)
		if err != nil {
			t.Fatalf("unexpected error on retry: %v", err)
		}
		if price != 99.0 {
			t.Errorf("expected 99.0, got %v", price)
		}
	})

	t.Run("collapses concurrent fetches", func(t *testing.T) {
		c := New(time.Minute)
		var calls int32
		release := make(chan struct{})

		fetch := func() (float64, error) {
			atomic.AddInt32(&calls, 1)
			<-release
			return 12.5, nil
		}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				price, err := c.GetOrFetch("INFY.NS", fetch)
				if err != nil || price != 12.5 {
					t.Errorf("got %v, %v", price, err)
				}
			}()
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		if got := atomic.LoadInt32(&calls); got != 1 {
			t.Errorf("expected a single collapsed fetch, got %d", got)
		}
	})
}

func TestEvict(t *testing.T) {
	c := New(time.Minute)
	c.Put("COLPAL.NS", 2200.0)
	c.Evict("COLPAL.NS")
	if _, ok := c.Get("COLPAL.NS"); ok {
		t.Fatal("expected miss after Evict")
	}
}
