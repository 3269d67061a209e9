package deals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// SearchLog is one row of search history.
type SearchLog struct {
	ScanID        uuid.UUID
	Origin        string
	Destination   string
	Cabin         Cabin
	TravelDate    time.Time
	AwardsFound   int
	DealsFound    int
	UnicornsFound int
	Errors        []string
	Duration      time.Duration
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const insertAwardSQL = `
	INSERT INTO awards (
		program, program_name, source, origin, destination, flight_no,
		airline_code, airline_name, departure, arrival, duration_minutes,
		aircraft, stops, cabin, booking_class, miles, cash_fees, is_saver,
		seats_available, amenities, scraped_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14, $15, $16, $17, $18, $19, $20, $21)
	RETURNING id
`

type execQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertAward(ctx context.Context, q execQuerier, a *Award) (int64, error) {
	f := a.Flight
	var id int64
	err := q.QueryRow(ctx, insertAwardSQL,
		a.Program, a.ProgramName, a.Source, f.Origin, f.Destination, f.FlightNo,
		f.AirlineCode, f.AirlineName, f.Departure, f.Arrival, f.DurationMinutes,
		f.Aircraft, f.Stops, string(a.Cabin), a.BookingClass, a.Miles, a.CashFees, a.IsSaver,
		a.SeatsAvailable, f.Amenities, a.ScrapedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert award %s %s: %w", a.Program, f.FlightNo, err)
	}
	return id, nil
}

// SaveAward stores an award and sets its ID.
func (r *Repository) SaveAward(ctx context.Context, a *Award) error {
	id, err := insertAward(ctx, r.db, a)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// SaveDeal stores a deal together with its award when the award has not
// been saved yet. IDs are written back on success.
func (r *Repository) SaveDeal(ctx context.Context, d *Deal) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	awardID := d.Award.ID
	if awardID == 0 {
		awardID, err = insertAward(ctx, tx, d.Award)
		if err != nil {
			return err
		}
	}

	var dealID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO deals (award_id, cash_price, cpp, is_unicorn, transferable_from,
		                   your_cost, your_source_program, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, awardID, d.CashPrice, d.CPP, d.IsUnicorn, d.TransferableFrom,
		d.YourCost, d.YourSourceProgram, d.CreatedAt,
	).Scan(&dealID)
	if err != nil {
		return fmt.Errorf("insert deal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit deal: %w", err)
	}
	d.Award.ID = awardID
	d.ID = dealID
	return nil
}

const selectDealSQL = `
	SELECT d.id, d.cash_price, d.cpp, d.is_unicorn, d.transferable_from,
	       d.your_cost, d.your_source_program, d.created_at,
	       a.id, a.program, a.program_name, a.source, a.origin, a.destination,
	       a.flight_no, a.airline_code, a.airline_name, a.departure, a.arrival,
	       a.duration_minutes, COALESCE(a.aircraft, ''), a.stops, a.cabin,
	       a.booking_class, a.miles, a.cash_fees, a.is_saver, a.seats_available,
	       a.amenities, a.scraped_at
	FROM deals d
	JOIN awards a ON a.id = d.award_id
`

func scanDeal(row pgx.Row) (*Deal, error) {
	var (
		d     Deal
		a     Award
		cabin string
	)
	err := row.Scan(
		&d.ID, &d.CashPrice, &d.CPP, &d.IsUnicorn, &d.TransferableFrom,
		&d.YourCost, &d.YourSourceProgram, &d.CreatedAt,
		&a.ID, &a.Program, &a.ProgramName, &a.Source, &a.Flight.Origin, &a.Flight.Destination,
		&a.Flight.FlightNo, &a.Flight.AirlineCode, &a.Flight.AirlineName, &a.Flight.Departure, &a.Flight.Arrival,
		&a.Flight.DurationMinutes, &a.Flight.Aircraft, &a.Flight.Stops, &cabin,
		&a.BookingClass, &a.Miles, &a.CashFees, &a.IsSaver, &a.SeatsAvailable,
		&a.Flight.Amenities, &a.ScrapedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Cabin = Cabin(cabin)
	d.Award = &a
	return &d, nil
}

// GetDeal loads one deal by ID.
func (r *Repository) GetDeal(ctx context.Context, id int64) (*Deal, error) {
	d, err := scanDeal(r.db.QueryRow(ctx, selectDealSQL+` WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("deal %d: %w", id, common.ErrDealNotFound)
		}
		return nil, fmt.Errorf("read deal %d: %w", id, err)
	}
	return d, nil
}

// RecentDeals returns the newest deals, optionally unicorns only, for
// flights that have not departed yet.
func (r *Repository) RecentDeals(ctx context.Context, limit int, unicornsOnly bool) ([]*Deal, error) {
	rows, err := r.db.Query(ctx, selectDealSQL+`
		WHERE a.departure >= NOW() AND ($1 = FALSE OR d.is_unicorn)
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT $2
	`, unicornsOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent deals: %w", err)
	}
	defer rows.Close()

	out := make([]*Deal, 0, limit)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MaxMilesSince is the highest price stored for the award's route, program,
// cabin and departure day since the given time. ok is false without history.
func (r *Repository) MaxMilesSince(ctx context.Context, a *Award, since time.Time) (int64, bool, error) {
	var highest *int64
	err := r.db.QueryRow(ctx, `
		SELECT MAX(miles)
		FROM awards
		WHERE origin = $1 AND destination = $2 AND program = $3 AND cabin = $4
		  AND departure::date = $5::date AND scraped_at >= $6
	`, a.Flight.Origin, a.Flight.Destination, a.Program, string(a.Cabin),
		a.Flight.Departure.Format(time.DateOnly), since,
	).Scan(&highest)
	if err != nil {
		return 0, false, fmt.Errorf("query price history: %w", err)
	}
	if highest == nil {
		return 0, false, nil
	}
	return *highest, true, nil
}

// RecentDealPrices returns the newest deal prices for drop detection.
func (r *Repository) RecentDealPrices(ctx context.Context, limit int) ([]PricePoint, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.origin, a.destination, a.program, a.cabin, a.miles, d.created_at
		FROM deals d
		JOIN awards a ON a.id = d.award_id
		ORDER BY d.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query deal prices: %w", err)
	}
	defer rows.Close()

	var out []PricePoint
	for rows.Next() {
		var (
			p     PricePoint
			cabin string
		)
		if err := rows.Scan(&p.Origin, &p.Destination, &p.Program, &cabin, &p.Miles, &p.SeenAt); err != nil {
			return nil, fmt.Errorf("scan deal price: %w", err)
		}
		p.Cabin = Cabin(cabin)
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveCashPrice logs a cash fare lookup.
func (r *Repository) SaveCashPrice(ctx context.Context, origin, destination string, date time.Time, cabin Cabin, price float64, source string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO cash_prices (origin, destination, travel_date, cabin, price, source)
		VALUES ($1, $2, $3::date, $4, $5, $6)
	`, origin, destination, date.Format(time.DateOnly), string(cabin), price, source)
	if err != nil {
		return fmt.Errorf("insert cash price: %w", err)
	}
	return nil
}

// LogSearch appends a search history row.
func (r *Repository) LogSearch(ctx context.Context, s SearchLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO search_history (scan_id, origin, destination, cabin, travel_date,
		                            awards_found, deals_found, unicorns_found, errors, duration_ms)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10)
	`, s.ScanID, s.Origin, s.Destination, string(s.Cabin), s.TravelDate.Format(time.DateOnly),
		s.AwardsFound, s.DealsFound, s.UnicornsFound, s.Errors, s.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert search history: %w", err)
	}
	return nil
}
