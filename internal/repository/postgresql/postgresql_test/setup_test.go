package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// testDatabase connects to TEST_DATABASE_URL, applies migrations and
// truncates the leave tables. Tests are skipped when the variable is unset.
func testDatabase(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Migrate(ctx)
	require.NoError(t, err)

	tables := []string{
		"leave_submission_markers",
		"leave_accrual_runs",
		"leave_credit_history",
		"leave_approvals",
		"leave_requests",
		"notifications",
		"notification_preferences",
		"employees",
	}
	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "truncate %s", table)
	}
	return db
}

func insertEmployee(t *testing.T, db *database.DB, code string, role employee.Role, cto string) string {
	t.Helper()
	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO employees (employee_code, full_name, email, department_id, gender, role, hire_date, cto_balance)
		VALUES ($1, $2, $3, 'dept-science', 'female', $4, $5, $6::numeric)
		RETURNING id
	`, code, "Employee "+code, code+"@example.edu", string(role), time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), cto).Scan(&id)
	require.NoError(t, err)
	return id
}
