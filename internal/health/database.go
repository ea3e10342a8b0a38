package health

import (
	"context"
	"fmt"
	"time"
)

// DatabaseItemID is the health item id of the profile database.
const DatabaseItemID = "profiles"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DatabaseChecker keeps the database health item in sync with a ping.
type DatabaseChecker struct {
	health  *Service
	db      Pinger
	timeout time.Duration
}

// NewDatabaseChecker registers the database item and returns its checker.
func NewDatabaseChecker(health *Service, db Pinger) *DatabaseChecker {
	health.RegisterItem(CategoryDatabase, DatabaseItemID, "Profile database")
	return &DatabaseChecker{health: health, db: db, timeout: 5 * time.Second}
}

// Check pings the database and updates the item. It returns the ping error.
func (c *DatabaseChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.db.PingContext(ctx); err != nil {
		c.health.SetError(CategoryDatabase, DatabaseItemID, fmt.Sprintf("Database unreachable: %v", err))
		return err
	}
	c.health.ClearStatus(CategoryDatabase, DatabaseItemID)
	return nil
}
