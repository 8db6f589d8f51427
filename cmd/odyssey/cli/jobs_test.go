package cli

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pricing/jobs"
)

func TestBuildTask(t *testing.T) {
	task, err := buildTask(jobs.TaskPOSPriceWarmup, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reason":"manual"}`, string(task.Payload()))

	task, err = buildTask(jobs.TaskPOSPriceInvalidate, []string{"WIDGET-1", "CUST-A"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"item_code":"WIDGET-1","customer":"CUST-A"}`, string(task.Payload()))

	task, err = buildTask(jobs.TaskPOSPriceInvalidate, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(task.Payload()))

	_, err = buildTask("mail:send", nil)
	assert.Error(t, err)
}

func TestNilJobsCLI(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(t.Context(), jobs.TaskPOSPriceWarmup)
	assert.Error(t, err)
	_, err = c.InspectQueue(t.Context())
	assert.Error(t, err)
}

type stubInspector struct {
	listFn    func(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	listCalls int
}

func (s *stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Scheduled: 1}, nil
}

func (s *stubInspector) ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	s.listCalls++
	return s.listFn(queue, opts...)
}

func (s *stubInspector) Close() error { return nil }

func TestListScheduled(t *testing.T) {
	next := time.Date(2025, 3, 14, 0, 5, 0, 0, time.UTC)
	var gotQueue string
	var gotOpts int
	inspector := &stubInspector{listFn: func(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
		gotQueue = queue
		gotOpts = len(opts)
		return []*asynq.TaskInfo{{ID: "t1", Type: jobs.TaskPOSPriceWarmup, NextProcessAt: next}}, nil
	}}
	c := &JobsCLI{inspector: inspector}

	tasks, err := c.ListScheduled(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, jobs.TaskPOSPriceWarmup, tasks[0].Type)
	assert.Equal(t, jobs.QueueDefault, gotQueue)
	assert.Equal(t, 2, gotOpts)
	assert.Equal(t, 1, inspector.listCalls)

	stats, err := c.InspectQueue(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scheduled)

	var nilCLI *JobsCLI
	_, err = nilCLI.ListScheduled(t.Context(), 5)
	assert.Error(t, err)
}
