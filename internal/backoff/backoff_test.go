package backoff_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/effkit-go/effkit/internal/backoff"
)

func TestBackoff_EarlyWaitsOnlyYield(t *testing.T) {
	var bo backoff.Backoff
	start := time.Now()
	for i := 0; i < 4; i++ {
		bo.Wait()
	}
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestBackoff_SleepIsBounded(t *testing.T) {
	var bo backoff.Backoff
	for i := 0; i < 100; i++ {
		start := time.Now()
		bo.Wait()
		assert.Less(t, time.Since(start), 100*time.Millisecond, "backoff must stay bounded")
	}
}

func TestBackoff_ResetRestartsYielding(t *testing.T) {
	var bo backoff.Backoff
	for i := 0; i < 20; i++ {
		bo.Wait()
	}
	bo.Reset()

	start := time.Now()
	bo.Wait()
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}
