package station

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL station repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Upsert stores or replaces a batch of station snapshots in a single
// transaction. A partially applied refresh would leave a corridor with a
// mix of old and new data, so the batch is all-or-nothing.
func (r *PostgresRepository) Upsert(ctx context.Context, stations []Station) error {
	if len(stations) == 0 {
		return nil
	}

	query := `
		INSERT INTO charging_stations (
			station_id, name, operator, lat, lon, power_kw,
			price_per_kwh, connection_fee, available_chargers, total_chargers,
			fast_brand, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (station_id) DO UPDATE SET
			name = EXCLUDED.name,
			operator = EXCLUDED.operator,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			power_kw = EXCLUDED.power_kw,
			price_per_kwh = EXCLUDED.price_per_kwh,
			connection_fee = EXCLUDED.connection_fee,
			available_chargers = EXCLUDED.available_chargers,
			total_chargers = EXCLUDED.total_chargers,
			fast_brand = EXCLUDED.fast_brand,
			updated_at = EXCLUDED.updated_at
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, st := range stations {
		batch.Queue(query,
			st.ID,
			st.Name,
			st.Operator,
			st.Position.Lat,
			st.Position.Lon,
			st.PowerKW,
			st.PricePerKWh,
			st.ConnectionFee,
			st.AvailableChargers,
			st.TotalChargers,
			st.FastBrand,
			st.UpdatedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range stations {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListInBox retrieves stored stations within a bounding box.
func (r *PostgresRepository) ListInBox(ctx context.Context, box GeoBox) ([]Station, error) {
	query := `
		SELECT
			station_id, name, operator, lat, lon, power_kw,
			price_per_kwh, connection_fee, available_chargers, total_chargers,
			fast_brand, updated_at
		FROM charging_stations
		WHERE lat BETWEEN $1 AND $2
		  AND lon BETWEEN $3 AND $4
	`

	rows, err := r.pool.Query(ctx, query, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []Station
	for rows.Next() {
		var (
			st                Station
			pricePerKWh       *float64
			connectionFee     *float64
			availableChargers *int
			totalChargers     *int
		)

		err := rows.Scan(
			&st.ID,
			&st.Name,
			&st.Operator,
			&st.Position.Lat,
			&st.Position.Lon,
			&st.PowerKW,
			&pricePerKWh,
			&connectionFee,
			&availableChargers,
			&totalChargers,
			&st.FastBrand,
			&st.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		st.PricePerKWh = pricePerKWh
		st.ConnectionFee = connectionFee
		st.AvailableChargers = availableChargers
		st.TotalChargers = totalChargers

		stations = append(stations, st)
	}

	return stations, rows.Err()
}

// DeleteStale removes stations not refreshed since the cutoff.
func (r *PostgresRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM charging_stations WHERE updated_at < $1`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
