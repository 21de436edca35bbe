package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"bookdir/backend/internal/domain"
	"bookdir/backend/internal/store"
)

// directoryLockID keys the advisory lock that serializes all directory
// operations (spelled from "bookdir").
const directoryLockID int64 = 0x626f6f6b646972

type DirectoryRepo struct {
	db *bun.DB
}

func NewDirectoryRepo(db *bun.DB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

// InTransaction runs fn in a database transaction that holds the directory
// advisory lock, so at most one directory operation is in flight at a time.
func (r *DirectoryRepo) InTransaction(ctx context.Context, fn func(ctx context.Context, tx store.DirectoryTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDirectory(ctx, tx); err != nil {
			return err
		}
		return fn(ctx, directoryTx{tx: tx})
	})
}

func lockDirectory(ctx context.Context, tx bun.Tx) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(?)", directoryLockID).Exec(ctx)
	return err
}

type directoryTx struct {
	tx bun.Tx
}

func (t directoryTx) Profiles(role domain.Role) store.ProfileTable {
	switch role {
	case domain.RoleUser:
		return profileTable{tx: t.tx, role: role, table: "users"}
	case domain.RoleDoctor:
		return profileTable{tx: t.tx, role: role, table: "doctors"}
	default:
		panic("postgres: invalid role " + string(role))
	}
}

func (t directoryTx) Bookings() store.BookingTable {
	return bookingTable{tx: t.tx}
}

type profileRow struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID        int32     `bun:"id,pk"`
	Username  string    `bun:"username,notnull"`
	Owner     string    `bun:"owner,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type profileTable struct {
	tx    bun.Tx
	role  domain.Role
	table string
}

func (t profileTable) Insert(ctx context.Context, p domain.Profile) error {
	row := profileRow{
		ID:        p.ID,
		Username:  p.Username,
		Owner:     string(p.Owner),
		CreatedAt: p.CreatedAt,
	}
	_, err := t.tx.NewInsert().
		Model(&row).
		ModelTableExpr(t.table + " AS p").
		Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == t.table+"_pkey" {
			return store.ErrDuplicateID
		}
		return err
	}
	return nil
}

func (t profileTable) Get(ctx context.Context, id int32) (domain.Profile, error) {
	var row profileRow
	err := t.tx.NewSelect().
		Model(&row).
		ModelTableExpr(t.table+" AS p").
		Where("p.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, store.ErrNotFound
		}
		return domain.Profile{}, err
	}
	return t.toDomain(row), nil
}

func (t profileTable) Remove(ctx context.Context, id int32) (domain.Profile, error) {
	p, err := t.Get(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}

	res, err := t.tx.NewDelete().
		Model((*profileRow)(nil)).
		ModelTableExpr(t.table+" AS p").
		Where("p.id = ?", id).
		Exec(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Profile{}, err
	}
	if affected == 0 {
		return domain.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (t profileTable) List(ctx context.Context) ([]domain.Profile, error) {
	var rows []profileRow
	err := t.tx.NewSelect().
		Model(&rows).
		ModelTableExpr(t.table + " AS p").
		OrderExpr("p.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, t.toDomain(row))
	}
	return out, nil
}

func (t profileTable) Contains(ctx context.Context, id int32) (bool, error) {
	var exists bool
	err := t.tx.NewRaw("SELECT EXISTS (SELECT 1 FROM "+t.table+" WHERE id = ?)", id).Scan(ctx, &exists)
	return exists, err
}

func (t profileTable) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	err := t.tx.NewRaw("SELECT EXISTS (SELECT 1 FROM " + t.table + ")").Scan(ctx, &exists)
	return !exists, err
}

func (t profileTable) MaxID(ctx context.Context) (int32, error) {
	var max int32
	err := t.tx.NewRaw("SELECT COALESCE(MAX(id), 0) FROM " + t.table).Scan(ctx, &max)
	return max, err
}

func (t profileTable) toDomain(row profileRow) domain.Profile {
	return domain.Profile{
		ID:        row.ID,
		Role:      t.role,
		Username:  row.Username,
		Owner:     domain.Principal(row.Owner),
		CreatedAt: row.CreatedAt,
	}
}

type bookingRow struct {
	bun.BaseModel `bun:"table:bookings,alias:b"`

	ID        int32      `bun:"id,pk"`
	UserID    int32      `bun:"user_id,notnull"`
	DoctorID  int32      `bun:"doctor_id,notnull"`
	StartAt   *time.Time `bun:"start_at"`
	EndAt     *time.Time `bun:"end_at"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
}

type bookingTable struct {
	tx bun.Tx
}

func (t bookingTable) Insert(ctx context.Context, b domain.Booking) error {
	row := bookingRow{
		ID:        b.ID,
		UserID:    b.UserID,
		DoctorID:  b.DoctorID,
		CreatedAt: b.CreatedAt,
	}
	if b.Interval != nil {
		start := b.Interval.StartAt
		end := b.Interval.EndAt
		row.StartAt = &start
		row.EndAt = &end
	}

	_, err := t.tx.NewInsert().Model(&row).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "bookings_pkey" {
			return store.ErrDuplicateID
		}
		return err
	}
	return nil
}

func (t bookingTable) Get(ctx context.Context, id int32) (domain.Booking, error) {
	var row bookingRow
	err := t.tx.NewSelect().
		Model(&row).
		Where("b.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, store.ErrNotFound
		}
		return domain.Booking{}, err
	}
	return bookingToDomain(row), nil
}

func (t bookingTable) Remove(ctx context.Context, id int32) (domain.Booking, error) {
	b, err := t.Get(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}

	res, err := t.tx.NewDelete().
		Model((*bookingRow)(nil)).
		Where("b.id = ?", id).
		Exec(ctx)
	if err != nil {
		return domain.Booking{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Booking{}, err
	}
	if affected == 0 {
		return domain.Booking{}, store.ErrNotFound
	}
	return b, nil
}

func (t bookingTable) List(ctx context.Context) ([]domain.Booking, error) {
	var rows []bookingRow
	err := t.tx.NewSelect().
		Model(&rows).
		OrderExpr("b.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, bookingToDomain(row))
	}
	return out, nil
}

func (t bookingTable) Contains(ctx context.Context, id int32) (bool, error) {
	var exists bool
	err := t.tx.NewRaw("SELECT EXISTS (SELECT 1 FROM bookings WHERE id = ?)", id).Scan(ctx, &exists)
	return exists, err
}

func (t bookingTable) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	err := t.tx.NewRaw("SELECT EXISTS (SELECT 1 FROM bookings)").Scan(ctx, &exists)
	return !exists, err
}

func (t bookingTable) MaxID(ctx context.Context) (int32, error) {
	var max int32
	err := t.tx.NewRaw("SELECT COALESCE(MAX(id), 0) FROM bookings").Scan(ctx, &max)
	return max, err
}

func bookingToDomain(row bookingRow) domain.Booking {
	b := domain.Booking{
		ID:        row.ID,
		UserID:    row.UserID,
		DoctorID:  row.DoctorID,
		CreatedAt: row.CreatedAt,
	}
	if row.StartAt != nil && row.EndAt != nil {
		b.Interval = &domain.Interval{StartAt: *row.StartAt, EndAt: *row.EndAt}
	}
	return b
}
