package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/booktrack/internal/config"
	"github.com/mrlokans/booktrack/internal/database"
	"github.com/mrlokans/booktrack/internal/entities"
)

func testLoader(t *testing.T) ConfigLoader {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	return func() *config.Config {
		return &config.Config{
			Database: config.Database{Driver: config.DriverSQLite, Path: dbPath, LogLevel: "silent"},
			Auth: config.Auth{
				SessionLifetime:  time.Hour,
				BcryptCost:       4,
				MaxLoginAttempts: 5,
				RateLimitWindow:  time.Minute,
				LockoutDuration:  time.Minute,
			},
			Library:     config.Library{LoanDays: 14, ReservationDays: 7, DailyFine: 1, AtomicWrites: true},
			Maintenance: config.Maintenance{RemindersDaysAhead: 2, LogRetentionDays: 90},
		}
	}
}

func execute(t *testing.T, load ConfigLoader, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test", load)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func findUser(t *testing.T, load ConfigLoader, email string) *entities.User {
	t.Helper()
	db, err := database.NewDatabase(load().Database)
	require.NoError(t, err)
	defer db.Close()

	var user entities.User
	require.NoError(t, db.DB.Where("email = ?", email).First(&user).Error)
	return &user
}

func TestCreateUser(t *testing.T) {
	load := testLoader(t)

	out, err := execute(t, load, "", "create-user",
		"--email", "admin@example.com",
		"--first-name", "Ada",
		"--last-name", "Lovelace",
		"--role", "library_admin",
		"--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Created library_admin user admin@example.com")

	user := findUser(t, load, "admin@example.com")
	assert.Equal(t, entities.RoleLibraryAdmin, user.Role)
	assert.Equal(t, entities.UserStatusActive, user.Status)
}

func TestCreateUser_PromptsForPassword(t *testing.T) {
	load := testLoader(t)

	out, err := execute(t, load, "secret123\nsecret123\n", "create-user",
		"--email", "reader@example.com", "--first-name", "Read", "--last-name", "Er")
	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")
	assert.Equal(t, entities.RoleUser, findUser(t, load, "reader@example.com").Role)
}

func TestCreateUser_Errors(t *testing.T) {
	load := testLoader(t)

	_, err := execute(t, load, "secret123\nother123\n", "create-user",
		"--email", "reader@example.com", "--first-name", "Read", "--last-name", "Er")
	assert.EqualError(t, err, "passwords do not match")

	_, err = execute(t, load, "", "create-user",
		"--email", "reader@example.com", "--first-name", "Read", "--last-name", "Er",
		"--role", "librarian", "--password", "secret123")
	assert.Error(t, err)

	_, err = execute(t, load, "", "create-user", "--first-name", "Read", "--last-name", "Er")
	assert.ErrorContains(t, err, "email")
}

func TestRunTask(t *testing.T) {
	load := testLoader(t)

	out, err := execute(t, load, "", "run-task", "cleanup_system_logs", "--retention-days", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "Task cleanup_system_logs completed")

	out, err = execute(t, load, "", "run-task", "due_reminders")
	require.NoError(t, err)
	assert.Contains(t, out, "Task due_reminders completed")

	_, err = execute(t, load, "", "run-task", "reindex")
	assert.EqualError(t, err, "unknown task type: reindex")

	_, err = execute(t, load, "", "run-task")
	assert.Error(t, err)
}

func TestRootCommand(t *testing.T) {
	out, err := execute(t, testLoader(t), "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "create-user")
	assert.Contains(t, out, "run-task")
	assert.Contains(t, out, "serve")
}
