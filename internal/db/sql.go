package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

// sqlStore implements Store on Postgres or SQLite. Queries are written with
// '?' placeholders and rebound for the connected driver.
type sqlStore struct {
	db *sqlx.DB
}

// compile-time check that sqlStore implements Store
var _ Store = (*sqlStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &sqlStore{db: conn}
}

type bookingRow struct {
	ID         string         `db:"id"`
	ResourceID string         `db:"resource_id"`
	Title      string         `db:"title"`
	StartUnix  int64          `db:"start_unix"`
	EndUnix    int64          `db:"end_unix"`
	Freq       sql.NullString `db:"freq"`
	ByDay      sql.NullInt64  `db:"byday"`
	CreatedBy  string         `db:"created_by"`
	Source     string         `db:"source"`
	CreatedAt  int64          `db:"created_at"`
}

const bookingColumns = `id, resource_id, title, start_unix, end_unix, freq, byday, created_by, source, created_at`

func (r bookingRow) toModel() model.Booking {
	b := model.Booking{
		ID:         r.ID,
		SeriesID:   r.ID,
		ResourceID: r.ResourceID,
		Title:      r.Title,
		Start:      time.Unix(r.StartUnix, 0).UTC(),
		End:        time.Unix(r.EndUnix, 0).UTC(),
		CreatedBy:  r.CreatedBy,
		Source:     r.Source,
		CreatedAt:  time.Unix(r.CreatedAt, 0).UTC(),
	}
	if r.Freq.Valid {
		b.Rule = &model.RecurrenceRule{Freq: model.Frequency(r.Freq.String)}
		if r.ByDay.Valid {
			wd := time.Weekday(r.ByDay.Int64)
			b.Rule.Weekday = &wd
		}
	}
	return b
}

func toRow(b model.Booking) bookingRow {
	r := bookingRow{
		ID:         b.ID,
		ResourceID: b.ResourceID,
		Title:      b.Title,
		StartUnix:  b.Start.Unix(),
		EndUnix:    b.End.Unix(),
		CreatedBy:  b.CreatedBy,
		Source:     b.Source,
		CreatedAt:  b.CreatedAt.Unix(),
	}
	if b.Rule != nil {
		r.Freq = sql.NullString{String: string(b.Rule.Freq), Valid: true}
		if b.Rule.Weekday != nil {
			r.ByDay = sql.NullInt64{Int64: int64(*b.Rule.Weekday), Valid: true}
		}
	}
	return r
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

func insertBooking(ctx context.Context, ex execer, b model.Booking, ignoreExisting bool) (bool, error) {
	r := toRow(b)
	q := `INSERT INTO bookings (` + bookingColumns + `) VALUES (?,?,?,?,?,?,?,?,?,?)`
	if ignoreExisting {
		q += ` ON CONFLICT (id) DO NOTHING`
	}
	res, err := ex.ExecContext(ctx, ex.Rebind(q),
		r.ID, r.ResourceID, r.Title, r.StartUnix, r.EndUnix, r.Freq, r.ByDay, r.CreatedBy, r.Source, r.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func upsertResource(ctx context.Context, ex execer, r model.Resource) error {
	_, err := ex.ExecContext(ctx, ex.Rebind(`
	INSERT INTO resources (id, home_id, name, color, created_at)
	VALUES (?,?,?,?,?)
	ON CONFLICT (id) DO UPDATE SET name = excluded.name, color = excluded.color`),
		r.ID, r.HomeID, r.Name, r.Color, time.Now().Unix())
	return err
}

func (s *sqlStore) LoadResourcesForHome(ctx context.Context, homeID string) ([]model.Resource, error) {
	out := []model.Resource{}
	const q = `SELECT id, home_id, name, color FROM resources WHERE home_id = ? ORDER BY name, id`
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(q), homeID); err != nil {
		log.Error().Err(err).Str("home_id", homeID).Msg("LoadResourcesForHome failed")
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) ListAllResources(ctx context.Context) ([]model.Resource, error) {
	out := []model.Resource{}
	const q = `SELECT id, home_id, name, color FROM resources ORDER BY name, id`
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		log.Error().Err(err).Msg("ListAllResources failed")
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) GetResource(ctx context.Context, id string) (model.Resource, error) {
	var r model.Resource
	const q = `SELECT id, home_id, name, color FROM resources WHERE id = ?`
	err := s.db.GetContext(ctx, &r, s.db.Rebind(q), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Resource{}, &model.NotFoundError{Kind: "resource", ID: id}
	}
	if err != nil {
		log.Error().Err(err).Str("resource_id", id).Msg("GetResource failed")
	}
	return r, err
}

func (s *sqlStore) UpsertResource(ctx context.Context, r model.Resource) error {
	if err := upsertResource(ctx, s.db, r); err != nil {
		log.Error().Err(err).Str("resource_id", r.ID).Msg("UpsertResource failed")
		return fmt.Errorf("upsert resource %s: %w", r.ID, err)
	}
	return nil
}

func (s *sqlStore) DeleteResource(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM resources WHERE id = ?`), id)
	if err != nil {
		log.Error().Err(err).Str("resource_id", id).Msg("DeleteResource failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &model.NotFoundError{Kind: "resource", ID: id}
	}
	return nil
}

func (s *sqlStore) CountBookingsForResource(ctx context.Context, resourceID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM bookings WHERE resource_id = ?`), resourceID)
	if err != nil {
		log.Error().Err(err).Str("resource_id", resourceID).Msg("CountBookingsForResource failed")
	}
	return n, err
}

func (s *sqlStore) LoadBookingsForResource(ctx context.Context, resourceID string) ([]model.Booking, error) {
	var rows []bookingRow
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE resource_id = ? ORDER BY start_unix, id`
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), resourceID); err != nil {
		log.Error().Err(err).Str("resource_id", resourceID).Msg("LoadBookingsForResource failed")
		return nil, err
	}
	out := make([]model.Booking, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *sqlStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	var r bookingRow
	err := s.db.GetContext(ctx, &r, s.db.Rebind(`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, &model.NotFoundError{Kind: "booking", ID: id}
	}
	if err != nil {
		log.Error().Err(err).Str("booking_id", id).Msg("GetBooking failed")
		return model.Booking{}, err
	}
	return r.toModel(), nil
}

func (s *sqlStore) BookingExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM bookings WHERE id = ?`), id)
	return n > 0, err
}

func (s *sqlStore) InsertSeries(ctx context.Context, b model.Booking) error {
	if _, err := insertBooking(ctx, s.db, b, false); err != nil {
		log.Error().Err(err).Str("series_id", b.SeriesID).Str("resource_id", b.ResourceID).Msg("InsertSeries failed")
		return fmt.Errorf("insert series %s: %w", b.SeriesID, err)
	}
	return nil
}

func (s *sqlStore) DeleteSeries(ctx context.Context, seriesID string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM bookings WHERE id = ?`), seriesID)
	if err != nil {
		log.Error().Err(err).Str("series_id", seriesID).Msg("DeleteSeries failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &model.NotFoundError{Kind: "series", ID: seriesID}
	}
	return nil
}

type homeRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	OwnerID   string `db:"owner_id"`
	CreatedAt int64  `db:"created_at"`
}

func (s *sqlStore) members(ctx context.Context, homeID string) ([]string, error) {
	out := []string{}
	err := s.db.SelectContext(ctx, &out,
		s.db.Rebind(`SELECT user_id FROM home_members WHERE home_id = ? ORDER BY user_id`), homeID)
	return out, err
}

func (s *sqlStore) GetHome(ctx context.Context, id string) (model.Home, error) {
	var r homeRow
	err := s.db.GetContext(ctx, &r, s.db.Rebind(`SELECT id, name, owner_id, created_at FROM homes WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Home{}, &model.NotFoundError{Kind: "home", ID: id}
	}
	if err != nil {
		log.Error().Err(err).Str("home_id", id).Msg("GetHome failed")
		return model.Home{}, err
	}
	members, err := s.members(ctx, id)
	if err != nil {
		return model.Home{}, err
	}
	return model.Home{ID: r.ID, Name: r.Name, OwnerID: r.OwnerID, Members: members, CreatedAt: time.Unix(r.CreatedAt, 0).UTC()}, nil
}

func (s *sqlStore) CreateHome(ctx context.Context, h model.Home) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO homes (id, name, owner_id, created_at) VALUES (?,?,?,?)`),
		h.ID, h.Name, h.OwnerID, h.CreatedAt.Unix()); err != nil {
		log.Error().Err(err).Str("home_id", h.ID).Msg("CreateHome failed")
		return fmt.Errorf("create home %s: %w", h.ID, err)
	}
	for _, m := range h.Members {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO home_members (home_id, user_id) VALUES (?,?)`), h.ID, m); err != nil {
			return fmt.Errorf("add member %s: %w", m, err)
		}
	}
	return tx.Commit()
}

// EnsureHome inserts h unless a home with the same id already exists.
func (s *sqlStore) EnsureHome(ctx context.Context, h model.Home) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO homes (id, name, owner_id, created_at) VALUES (?,?,?,?) ON CONFLICT (id) DO NOTHING`),
		h.ID, h.Name, h.OwnerID, h.CreatedAt.Unix())
	if err != nil {
		log.Error().Err(err).Str("home_id", h.ID).Msg("EnsureHome failed")
	}
	return err
}

func (s *sqlStore) ListHomesForUser(ctx context.Context, userID string) ([]model.Home, error) {
	var rows []homeRow
	const q = `
	SELECT DISTINCT h.id, h.name, h.owner_id, h.created_at
	  FROM homes h
	  LEFT JOIN home_members m ON m.home_id = h.id
	 WHERE h.owner_id = ? OR m.user_id = ?
	 ORDER BY h.name, h.id`
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), userID, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("ListHomesForUser failed")
		return nil, err
	}
	out := make([]model.Home, 0, len(rows))
	for _, r := range rows {
		members, err := s.members(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Home{ID: r.ID, Name: r.Name, OwnerID: r.OwnerID, Members: members, CreatedAt: time.Unix(r.CreatedAt, 0).UTC()})
	}
	return out, nil
}

func (s *sqlStore) AddMember(ctx context.Context, homeID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO home_members (home_id, user_id) VALUES (?,?) ON CONFLICT DO NOTHING`), homeID, userID)
	if err != nil {
		log.Error().Err(err).Str("home_id", homeID).Str("user_id", userID).Msg("AddMember failed")
	}
	return err
}

func (s *sqlStore) ApplyImport(ctx context.Context, plan ImportPlan) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO homes (id, name, owner_id, created_at) VALUES (?,?,?,?) ON CONFLICT (id) DO NOTHING`),
		plan.Home.ID, plan.Home.Name, plan.Home.OwnerID, time.Now().Unix()); err != nil {
		return fmt.Errorf("ensure home %s: %w", plan.Home.ID, err)
	}
	for _, r := range plan.Resources {
		if err := upsertResource(ctx, tx, r); err != nil {
			return fmt.Errorf("upsert resource %q: %w", r.Name, err)
		}
	}
	for _, b := range plan.Bookings {
		if _, err := insertBooking(ctx, tx, b, true); err != nil {
			return fmt.Errorf("insert booking %s: %w", b.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("ApplyImport commit failed")
		return err
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
