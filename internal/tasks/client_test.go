package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/booktrack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.DatabasePath = TasksDBPath(dbPath)

	client, err := NewClient(cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created
	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	// Start client in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	// Stop should complete successfully
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

// TestTask is a simple task for testing
type TestTask struct {
	Value string `json:"value"`
}

func (t TestTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "test_task",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestTaskEnqueue(t *testing.T) {
	client := newTestClient(t)

	// Create and register a test queue
	executed := make(chan string, 1)
	queue := backlite.NewQueue(func(ctx context.Context, task TestTask) error {
		executed <- task.Value
		return nil
	})
	client.Register(queue)

	// Start client
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	// Enqueue a task
	ids, err := client.Add(TestTask{Value: "hello"}).Save()
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	// Wait for task to be executed
	select {
	case val := <-executed:
		assert.Equal(t, "hello", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestNewClientRequiresPath(t *testing.T) {
	_, err := NewClient(DefaultConfig())
	assert.Error(t, err)
}

func TestEnqueueAndStatus(t *testing.T) {
	client := newTestClient(t)
	client.RegisterMaintenance(&fakeSender{calls: make(chan int, 1)}, &fakeCleaner{calls: make(chan time.Duration, 1)})

	id, err := client.Enqueue(context.Background(), DueRemindersTask{DaysAhead: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	status, err := client.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "pending", StatusString(status))
	assert.False(t, client.IsStarted())
}

func TestMaintenanceTasksRun(t *testing.T) {
	client := newTestClient(t)

	sender := &fakeSender{calls: make(chan int, 1)}
	cleaner := &fakeCleaner{calls: make(chan time.Duration, 1)}
	client.RegisterMaintenance(sender, cleaner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	_, err := client.Add(DueRemindersTask{DaysAhead: 3}, CleanupSystemLogsTask{RetentionDays: 7}).Save()
	require.NoError(t, err)

	select {
	case days := <-sender.calls:
		assert.Equal(t, 3, days)
	case <-time.After(5 * time.Second):
		t.Fatal("reminder task was not executed within timeout")
	}

	select {
	case retention := <-cleaner.calls:
		assert.Equal(t, 7*24*time.Hour, retention)
	case <-time.After(5 * time.Second):
		t.Fatal("cleanup task was not executed within timeout")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.Tasks{Workers: 4}, "/data/booktrack.db")
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, filepath.Join("/data", "booktrack-tasks.db"), cfg.DatabasePath)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)

	cfg = ConfigFrom(config.Tasks{DatabasePath: "/tmp/q.db"}, "/data/booktrack.db")
	assert.Equal(t, "/tmp/q.db", cfg.DatabasePath)
	assert.Equal(t, 2, cfg.Workers)
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.DatabasePath = filepath.Join(t.TempDir(), "test-tasks.db")

	client, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

type fakeSender struct {
	calls chan int
}

func (f *fakeSender) SendDueReminders(_ context.Context, daysAhead int) (int, error) {
	f.calls <- daysAhead
	return 0, nil
}

type fakeCleaner struct {
	calls chan time.Duration
}

func (f *fakeCleaner) DeleteOlderThan(_ context.Context, retention time.Duration, _ time.Time) (int64, error) {
	f.calls <- retention
	return 0, nil
}
