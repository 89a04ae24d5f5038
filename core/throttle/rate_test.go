package throttle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/throttlehq/throttle/core/throttle"
)

func TestNewRate(t *testing.T) {
	t.Parallel()

	t.Run("derives per-action period", func(t *testing.T) {
		tests := []struct {
			name   string
			count  int64
			period time.Duration
			want   time.Duration
		}{
			{"one per second", 1, time.Second, time.Second},
			{"ten per two seconds", 10, 2 * time.Second, 200 * time.Millisecond},
			{"sixty per minute", 60, time.Minute, time.Second},
			{"three per second truncates", 3, time.Second, 333333333 * time.Nanosecond},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rate, err := throttle.NewRate(tt.count, tt.period)
				require.NoError(t, err)
				assert.Equal(t, tt.want, rate.Period)
			})
		}
	})

	t.Run("rejects non-positive count", func(t *testing.T) {
		_, err := throttle.NewRate(0, time.Second)
		assert.ErrorIs(t, err, throttle.ErrInvalidQuota)

		_, err = throttle.NewRate(-5, time.Second)
		assert.ErrorIs(t, err, throttle.ErrInvalidQuota)
	})

	t.Run("rejects non-positive period", func(t *testing.T) {
		_, err := throttle.NewRate(1, 0)
		assert.ErrorIs(t, err, throttle.ErrInvalidQuota)

		_, err = throttle.NewRate(1, -time.Second)
		assert.ErrorIs(t, err, throttle.ErrInvalidQuota)
	})
}

func TestRateConstructors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 50*time.Millisecond, throttle.PerSecond(20).Period)
	assert.Equal(t, 2*time.Second, throttle.PerMinute(30).Period)
	assert.Equal(t, 30*time.Minute, throttle.PerHour(2).Period)

	// Invalid counts produce a zero rate, rejected by New.
	assert.Zero(t, throttle.PerSecond(0).Period)
	assert.Zero(t, throttle.PerMinute(-1).Period)
}
