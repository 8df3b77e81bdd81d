package seq

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitJoinTime(t *testing.T) {
	tests := []struct {
		ns   int64
		sec  int64
		nsec int32
	}{
		{0, 0, 0},
		{999_999_999, 0, 999_999_999},
		{1_000_000_000, 1, 0},
		{1_500_000_001, 1, 500_000_001},
		{-1, 0, -1},
		{-1_500_000_000, -1, -500_000_000},
	}

	for _, tt := range tests {
		sec, nsec := SplitTime(tt.ns)
		assert.Equal(t, tt.sec, sec, "sec of %d", tt.ns)
		assert.Equal(t, tt.nsec, nsec, "nsec of %d", tt.ns)
		assert.Equal(t, tt.ns, JoinTime(sec, nsec))
	}
}

func TestSplitJoinTime_Random(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		sec := r.Int63n(1 << 32)
		nsec := int32(r.Int63n(nsPerSecond))

		gotSec, gotNsec := SplitTime(JoinTime(sec, nsec))
		assert.Equal(t, sec, gotSec)
		assert.Equal(t, nsec, gotNsec)
	}
}
