package cronmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJobs(t *testing.T) {
	cm := NewCronManager(JobRegistry{
		"sessions_evict": {Func: func() {}, Schedule: "*/5 * * * *"},
		"broken":         {Func: func() {}, Schedule: "every now and then"},
	})

	err := cm.LoadJobs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, []string{"sessions_evict"}, cm.Jobs())

	require.Error(t, cm.LoadJobs(), "reload keeps the same result")
	assert.Equal(t, []string{"sessions_evict"}, cm.Jobs())

	cm.RemoveJob("sessions_evict")
	assert.Empty(t, cm.Jobs())
}

func TestStartStop(t *testing.T) {
	cm := NewCronManager(JobRegistry{
		"noop": {Func: func() {}, Schedule: "@every 1h"},
	})
	require.NoError(t, cm.LoadJobs())
	cm.Start()
	cm.Stop()
}
