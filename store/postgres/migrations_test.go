package postgres

import (
	"testing"

	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"
)

func TestMigrationExecutorRegistered(t *testing.T) {
	exec, err := migrate.NewExecutorFor(pgdriver.New())
	if err != nil {
		t.Fatalf("NewExecutorFor: %v", err)
	}
	if exec == nil {
		t.Fatal("nil executor")
	}
}
