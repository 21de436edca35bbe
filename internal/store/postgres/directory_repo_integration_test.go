package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"bookdir/backend/internal/domain"
	"bookdir/backend/internal/store"
)

func TestPostgresIntegration_DirectoryTables(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("BOOKDIR_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("BOOKDIR_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "bookdir_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(cleanupCtx)
	})

	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema).Exec(ctx); err != nil {
			return err
		}
		if err := applyEmbeddedMigrations(ctx, tx); err != nil {
			return err
		}

		dtx := directoryTx{tx: tx}
		users := dtx.Profiles(domain.RoleUser)
		doctors := dtx.Profiles(domain.RoleDoctor)
		bookings := dtx.Bookings()

		if empty, err := users.IsEmpty(ctx); err != nil || !empty {
			return fmt.Errorf("fresh users IsEmpty = %v, %v", empty, err)
		}

		for _, id := range []int32{5, 1, 3} {
			p := domain.Profile{
				ID:        id,
				Role:      domain.RoleUser,
				Username:  fmt.Sprintf("user%d", id),
				Owner:     "alice",
				CreatedAt: createdAt,
			}
			if err := users.Insert(ctx, p); err != nil {
				return fmt.Errorf("Insert(%d) error: %w", id, err)
			}
		}

		err := users.Insert(ctx, domain.Profile{ID: 1, Role: domain.RoleUser, Username: "dup", Owner: "alice", CreatedAt: createdAt})
		if err != store.ErrDuplicateID {
			return fmt.Errorf("duplicate insert err = %v, want %v", err, store.ErrDuplicateID)
		}

		list, err := users.List(ctx)
		if err != nil {
			return err
		}
		wantIDs := []int32{1, 3, 5}
		if len(list) != len(wantIDs) {
			return fmt.Errorf("len(list) = %d, want %d", len(list), len(wantIDs))
		}
		for i, p := range list {
			if p.ID != wantIDs[i] {
				return fmt.Errorf("list[%d].ID = %d, want %d", i, p.ID, wantIDs[i])
			}
			if p.Role != domain.RoleUser {
				return fmt.Errorf("list[%d].Role = %q, want %q", i, p.Role, domain.RoleUser)
			}
		}

		if max, err := users.MaxID(ctx); err != nil || max != 5 {
			return fmt.Errorf("MaxID = %d, %v, want 5", max, err)
		}

		got, err := users.Get(ctx, 3)
		if err != nil {
			return err
		}
		if got.Username != "user3" || got.Owner != "alice" {
			return fmt.Errorf("Get(3) = %+v", got)
		}
		if !got.CreatedAt.Equal(createdAt) {
			return fmt.Errorf("CreatedAt = %v, want %v", got.CreatedAt, createdAt)
		}

		if ok, err := doctors.Contains(ctx, 1); err != nil || ok {
			return fmt.Errorf("doctor Contains(1) = %v, %v, want false", ok, err)
		}
		if err := doctors.Insert(ctx, domain.Profile{ID: 1, Role: domain.RoleDoctor, Username: "drwho", Owner: "bob", CreatedAt: createdAt}); err != nil {
			return err
		}

		start := createdAt.Add(24 * time.Hour)
		end := start.Add(time.Hour)
		if err := bookings.Insert(ctx, domain.Booking{
			ID:        1,
			UserID:    1,
			DoctorID:  1,
			Interval:  &domain.Interval{StartAt: start, EndAt: end},
			CreatedAt: createdAt,
		}); err != nil {
			return err
		}
		if err := bookings.Insert(ctx, domain.Booking{ID: 2, UserID: 3, DoctorID: 1, CreatedAt: createdAt}); err != nil {
			return err
		}

		b, err := bookings.Get(ctx, 1)
		if err != nil {
			return err
		}
		if b.Interval == nil || !b.Interval.StartAt.Equal(start) || !b.Interval.EndAt.Equal(end) {
			return fmt.Errorf("booking 1 interval = %+v", b.Interval)
		}
		b2, err := bookings.Get(ctx, 2)
		if err != nil {
			return err
		}
		if b2.Interval != nil {
			return fmt.Errorf("booking 2 interval = %+v, want nil", b2.Interval)
		}

		removed, err := bookings.Remove(ctx, 2)
		if err != nil {
			return err
		}
		if removed.UserID != 3 {
			return fmt.Errorf("removed.UserID = %d, want 3", removed.UserID)
		}
		if _, err := bookings.Remove(ctx, 2); err != store.ErrNotFound {
			return fmt.Errorf("second remove err = %v, want %v", err, store.ErrNotFound)
		}

		if max, err := bookings.MaxID(ctx); err != nil || max != 1 {
			return fmt.Errorf("bookings MaxID = %d, %v, want 1", max, err)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

// applyEmbeddedMigrations replays the goose Up sections inside the current
// transaction so the test schema gets the same DDL the service runs with.
func applyEmbeddedMigrations(ctx context.Context, tx bun.Tx) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		b, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		upSQL, err := extractGooseUp(string(b))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for _, stmt := range splitSQLStatements(upSQL) {
			if _, err := tx.NewRaw(stmt).Exec(ctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sql[upIdx+len(upMarker):]

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
