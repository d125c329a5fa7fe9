package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollector_RecordRun(t *testing.T) {
	c := NewCollector()

	c.RecordRun(5*time.Second, nil)
	c.RecordRun(3*time.Second, errors.New("boom"))

	snapshot := c.Snapshot()
	runs := snapshot["runs"].(map[string]interface{})
	assert.Equal(t, uint64(2), runs["started"])
	assert.Equal(t, uint64(1), runs["succeeded"])
	assert.Equal(t, uint64(1), runs["failed"])
	assert.Equal(t, int64(8000), runs["latency_ms"])
}

func TestCollector_RecordSinks(t *testing.T) {
	c := NewCollector()

	c.RecordPublicWrite(nil)
	c.RecordPublicWrite(errors.New("boom"))
	c.RecordPrivateWrite(nil)

	snapshot := c.Snapshot()
	sinks := snapshot["sinks"].(map[string]interface{})
	public := sinks["public"].(map[string]interface{})
	private := sinks["private"].(map[string]interface{})

	assert.Equal(t, uint64(2), public["writes"])
	assert.Equal(t, uint64(1), public["errors"])
	assert.Equal(t, uint64(1), private["writes"])
	assert.Equal(t, uint64(0), private["errors"])
}

func TestCollector_RecordSampling(t *testing.T) {
	c := NewCollector()

	c.RecordSampling(50, nil)
	c.RecordSampling(0, errors.New("boom"))

	snapshot := c.Snapshot()
	sampling := snapshot["sampling"].(map[string]interface{})
	assert.Equal(t, uint64(50), sampling["samples"])
	assert.Equal(t, uint64(1), sampling["errors"])
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()

	c.RecordRun(time.Second, nil)
	c.RecordHistoryWrite(errors.New("boom"))
	c.Reset()

	snapshot := c.Snapshot()
	runs := snapshot["runs"].(map[string]interface{})
	historyStats := snapshot["history"].(map[string]interface{})
	assert.Equal(t, uint64(0), runs["started"])
	assert.Equal(t, uint64(0), historyStats["errors"])
}
