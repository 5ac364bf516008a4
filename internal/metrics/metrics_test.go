package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTierHitAndMiss(t *testing.T) {
	before := testutil.ToFloat64(TierHits.WithLabelValues("memory"))
	RecordTierHit("memory")
	assert.Equal(t, before+1, testutil.ToFloat64(TierHits.WithLabelValues("memory")))

	before = testutil.ToFloat64(TierMisses.WithLabelValues("store"))
	RecordTierMiss("store")
	assert.Equal(t, before+1, testutil.ToFloat64(TierMisses.WithLabelValues("store")))
}

func TestUpdateMemoryEntries(t *testing.T) {
	UpdateMemoryEntries(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(MemoryEntries))
}

func TestRecordStrategyRequest(t *testing.T) {
	before := testutil.ToFloat64(StrategyRequests.WithLabelValues("cache-first", "static"))
	RecordStrategyRequest("cache-first", "static")
	assert.Equal(t, before+1, testutil.ToFloat64(StrategyRequests.WithLabelValues("cache-first", "static")))
}

func TestRecordByteCacheEviction(t *testing.T) {
	before := testutil.ToFloat64(ByteCacheEvictions.WithLabelValues("api"))
	RecordByteCacheEviction("api")
	assert.Equal(t, before+1, testutil.ToFloat64(ByteCacheEvictions.WithLabelValues("api")))
}

func TestTimeStoreOperation(t *testing.T) {
	done := TimeStoreOperation("memory", "get")
	assert.NotPanics(t, done)
}
