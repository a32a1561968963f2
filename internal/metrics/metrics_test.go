package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordCommand("getTitle", "success", time.Millisecond)
		c.RecordAsyncPoll()
		c.RecordAsyncResult("success")
		c.SetActiveSessions(3)
		c.SetHealthyEndpoints(1)
	})
}

func TestCollectorRecords(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.RecordCommand("findElement", "success", 20*time.Millisecond)
	c.RecordCommand("findElement", "NoSuchElementError", 5*time.Millisecond)
	c.RecordCommand("findElement", "success", time.Millisecond)
	c.RecordAsyncPoll()
	c.RecordAsyncPoll()
	c.RecordAsyncResult("timeout")
	c.SetActiveSessions(4)
	c.SetHealthyEndpoints(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.commandsTotal.WithLabelValues("findElement", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commandsTotal.WithLabelValues("findElement", "NoSuchElementError")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.asyncPollsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.asyncResultsTotal.WithLabelValues("timeout")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.sessionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.endpointsHealthy))
}
