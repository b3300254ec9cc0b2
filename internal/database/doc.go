// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, transactions
//	├── store.go         # lending.Store adapter with error classification
//	├── catalog/         # Books, publishers and students
//	├── loans/           # Borrow requests and book issues
//	├── cards/           # Library cards
//	├── sweeps/          # Reminder sweep queries (goqu + sqlx)
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./library.db")
//
//	// Create domain-specific repositories
//	catalogRepo := catalog.NewRepository(db.DB)
//	sweepRepo := sweeps.NewRepository(sqlDB)
//
//	// Or run lending operations through the transactional adapter
//	store := database.NewLendingStore(db)
//
// # Transactions
//
// Connections open with _txlock=immediate, so every transaction takes the
// SQLite write lock at BEGIN and concurrent approvals or returns run one after
// another. Repositories obtained through ForUpdate add row locks on engines
// that support them.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
