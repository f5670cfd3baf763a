// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations, category seeding
//	├── users/           # Accounts and profile updates
//	├── books/           # Catalog, search, partial updates, categories
//	├── borrowings/      # Loans and returns
//	├── reservations/    # Holds and their promotion queue
//	├── bookmarks/       # Per-user saved books
//	├── notifications/   # Per-user inbox
//	├── logs/            # System log (audit trail)
//	└── dashboard/       # Read-only aggregate queries
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type bound to a *gorm.DB:
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	booksRepo := books.NewRepository(db.DB)
//	book, err := booksRepo.GetByID(ctx, 123)
//
// Repositories are cheap to construct. Code running inside a transaction
// builds them from the transaction handle (or calls WithTx) so every
// statement of a multi-step flow commits or rolls back together.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add the entity to Models in database.go
//  5. Add compile-time interface checks in internal/interfaces/checks.go
package database
