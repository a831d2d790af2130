package repositories

import "context"

// Repository aggregates the stores the scoring service reads and writes
type Repository interface {
	// Question catalogue (read-mostly)
	Question() QuestionRepository

	// Scored attempts
	Attempt() AttemptRepository

	// Timed-session tokens; may live outside the database
	Session() SessionRepository

	// Per-user progress aggregates
	Dashboard() DashboardRepository

	// Identity provider lookups (read-only)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
