package config

const (
	// DefaultDatabasePath is the default path for the SQLite database
	DefaultDatabasePath = "./booktrack.db"

	// DefaultEnvFile is read on startup when present
	DefaultEnvFile = ".env"
)

// Circulation defaults
const (
	DefaultLoanDays        = 14
	DefaultReservationDays = 7
	DefaultDailyFine       = 1.00
)
