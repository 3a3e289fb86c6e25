package internal

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitrep-gov/platform/internal/event"
	"github.com/sitrep-gov/platform/internal/governorate"
	"github.com/sitrep-gov/platform/internal/refnum"
	"github.com/sitrep-gov/platform/internal/report"
	"github.com/sitrep-gov/platform/internal/shared/database"
	apperrors "github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/types"
	"github.com/sitrep-gov/platform/internal/user"
)

// testPool connects to the database named by TEST_DATABASE_DSN and runs
// the migrations. Tests that need it are skipped when the variable is
// unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return pool
}

// TestReportEventConsistency walks the report/event lifecycle and checks
// that event_count always equals the true child count, and that a report
// with children cannot be deleted.
func TestReportEventConsistency(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	gen := refnum.NewGenerator()

	users := user.NewRepository(pool)
	govs := governorate.NewRepository(pool)
	reports := report.NewRepository(pool, gen)
	events := event.NewRepository(pool, gen)

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	// Seed an author and a governorate with one region
	author := &user.User{
		ID:           types.NewID(),
		Username:     "consistency-" + suffix,
		PasswordHash: "x",
		FullName:     "Consistency Check",
		Role:         "data_entry",
		IsActive:     true,
	}
	if err := users.Create(ctx, author); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM identity.users WHERE id = $1`, author.ID)
	})

	gov := &governorate.Governorate{
		ID:       types.NewID(),
		Name:     "Test Governorate " + suffix,
		Code:     "TG" + suffix,
		Regions:  []string{"Central"},
		IsActive: true,
	}
	if err := govs.Create(ctx, gov); err != nil {
		t.Fatalf("Failed to create governorate: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM geo.governorates WHERE id = $1`, gov.ID)
	})

	// A far-future random date keeps the unique (date, type) pair free
	// across repeated runs against the same database.
	reportDate := time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rand.Intn(100000))

	rep := &report.Report{
		ID:             types.NewID(),
		ReportDate:     reportDate,
		ReportType:     report.TypeMorning,
		Status:         report.StatusDraft,
		Summary:        "consistency check",
		GovernorateIDs: []types.ID{gov.ID},
		CreatedBy:      author.ID,
	}
	if err := reports.Create(ctx, rep); err != nil {
		t.Fatalf("Failed to create report: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM reporting.events WHERE report_id = $1`, rep.ID)
		pool.Exec(ctx, `DELETE FROM reporting.daily_reports WHERE id = $1`, rep.ID)
	})

	newEvent := func() *event.Event {
		return &event.Event{
			ID:              types.NewID(),
			ReportID:        rep.ID,
			GovernorateID:   gov.ID,
			Region:          "Central",
			EventTime:       reportDate.Add(9 * time.Hour),
			EventDate:       reportDate,
			EventType:       "arrest",
			Severity:        event.SeverityMedium,
			Description:     "two suspects detained at checkpoint",
			InvolvedParties: []string{},
			Status:          event.StatusOngoing,
			CreatedBy:       author.ID,
		}
	}

	// 1. Two child events bring the count to 2
	first := newEvent()
	if err := events.Create(ctx, first); err != nil {
		t.Fatalf("Failed to create first event: %v", err)
	}
	second := newEvent()
	if err := events.Create(ctx, second); err != nil {
		t.Fatalf("Failed to create second event: %v", err)
	}

	if !strings.HasSuffix(first.EventNumber, "-001") || !strings.HasSuffix(second.EventNumber, "-002") {
		t.Errorf("Sibling numbering = %q, %q, want suffixes -001, -002", first.EventNumber, second.EventNumber)
	}

	got, err := reports.FindByID(ctx, rep.ID)
	if err != nil {
		t.Fatalf("Failed to reload report: %v", err)
	}
	if got.EventCount != 2 {
		t.Errorf("event_count after two creates = %d, want 2", got.EventCount)
	}

	// 2. Deleting the report while children exist is a conflict and
	// changes nothing
	err = reports.Delete(ctx, rep.ID)
	if err == nil {
		t.Fatal("Report delete with children should fail")
	}
	var appErr *apperrors.AppError
	if !stderrors.As(err, &appErr) || appErr.HTTPStatus != 409 {
		t.Errorf("Report delete error = %v, want a 409 conflict", err)
	}

	got, err = reports.FindByID(ctx, rep.ID)
	if err != nil {
		t.Fatalf("Report should survive a blocked delete: %v", err)
	}
	if got.EventCount != 2 {
		t.Errorf("event_count after blocked delete = %d, want 2", got.EventCount)
	}
	if _, err := events.FindByID(ctx, first.ID); err != nil {
		t.Errorf("First event should survive a blocked delete: %v", err)
	}
	if _, err := events.FindByID(ctx, second.ID); err != nil {
		t.Errorf("Second event should survive a blocked delete: %v", err)
	}

	// 3. Removing one child drops the count to 1
	if err := events.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Failed to delete first event: %v", err)
	}
	got, err = reports.FindByID(ctx, rep.ID)
	if err != nil {
		t.Fatalf("Failed to reload report: %v", err)
	}
	if got.EventCount != 1 {
		t.Errorf("event_count after one delete = %d, want 1", got.EventCount)
	}

	// 4. With no children left the report deletes cleanly
	if err := events.Delete(ctx, second.ID); err != nil {
		t.Fatalf("Failed to delete second event: %v", err)
	}
	if err := reports.Delete(ctx, rep.ID); err != nil {
		t.Errorf("Report delete with no children should succeed: %v", err)
	}
}
