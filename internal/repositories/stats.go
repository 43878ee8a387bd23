package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/transmission"
)

const sampleColumns = `id, sequence, download_speed, upload_speed, active_torrents, paused_torrents, total_torrents,
	downloaded_bytes, uploaded_bytes, free_space, sampled_at, created_at, updated_at, deleted_at`

// StatsRepository implements models.Repository[*models.StatsSample] for the stats history.
type StatsRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.StatsSample] = (*StatsRepository)(nil)

// NewStatsRepository creates a new StatsRepository with the given database connection
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Create inserts a new [models.StatsSample] with generated ID and sequence
func (r *StatsRepository) Create(sample *models.StatsSample) error {
	if err := sample.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "stats_samples")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	sample.SetID(id)
	sample.SetSequence(sequence)

	query := `
		INSERT INTO stats_samples (id, sequence, download_speed, upload_speed, active_torrents, paused_torrents,
			total_torrents, downloaded_bytes, uploaded_bytes, free_space, sampled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		sample.DownloadSpeed(),
		sample.UploadSpeed(),
		sample.ActiveTorrents(),
		sample.PausedTorrents(),
		sample.TotalTorrents(),
		sample.DownloadedBytes(),
		sample.UploadedBytes(),
		sample.FreeSpace(),
		sample.SampledAt().UTC(),
		sample.CreatedAt().UTC(),
		sample.UpdatedAt().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert stats sample: %w", err)
	}

	return nil
}

// Get retrieves a sample by ID, excluding soft-deleted samples
func (r *StatsRepository) Get(id string) (*models.StatsSample, error) {
	query := `SELECT ` + sampleColumns + ` FROM stats_samples WHERE id = ? AND deleted_at IS NULL`

	sample, err := scanSample(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSampleNotFound, id)
	}
	return sample, err
}

// Update modifies the measured values of an existing sample
func (r *StatsRepository) Update(sample *models.StatsSample) error {
	if err := sample.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	sample.SetUpdatedAt(now)

	query := `
		UPDATE stats_samples
		SET download_speed = ?, upload_speed = ?, active_torrents = ?, paused_torrents = ?, total_torrents = ?,
			downloaded_bytes = ?, uploaded_bytes = ?, free_space = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		sample.DownloadSpeed(),
		sample.UploadSpeed(),
		sample.ActiveTorrents(),
		sample.PausedTorrents(),
		sample.TotalTorrents(),
		sample.DownloadedBytes(),
		sample.UploadedBytes(),
		sample.FreeSpace(),
		now.UTC(),
		sample.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update stats sample: %w", err)
	}

	return requireRow(result, sample.ID())
}

// Delete soft-deletes a sample by ID
func (r *StatsRepository) Delete(id string) error {
	query := `
		UPDATE stats_samples
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete stats sample: %w", err)
	}

	return requireRow(result, id)
}

// List retrieves samples in sequence order, excluding soft-deleted ones.
//
// Supported criteria: "since" and "until" (time.Time, inclusive bounds on sampled_at) and "limit" (int).
func (r *StatsRepository) List(criteria map[string]any) ([]*models.StatsSample, error) {
	query := `SELECT ` + sampleColumns + ` FROM stats_samples WHERE deleted_at IS NULL`
	args := []any{}

	if since, ok := criteria["since"].(time.Time); ok && !since.IsZero() {
		query += " AND sampled_at >= ?"
		args = append(args, since.UTC())
	}

	if until, ok := criteria["until"].(time.Time); ok && !until.IsZero() {
		query += " AND sampled_at <= ?"
		args = append(args, until.UTC())
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.query(query, args...)
}

// Latest returns the n most recent samples, oldest first.
func (r *StatsRepository) Latest(n int) ([]*models.StatsSample, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", shared.ErrInvalidArgument)
	}

	query := `
		SELECT * FROM (
			SELECT ` + sampleColumns + ` FROM stats_samples
			WHERE deleted_at IS NULL
			ORDER BY sequence DESC
			LIMIT ?
		) ORDER BY sequence ASC
	`
	return r.query(query, n)
}

// Prune permanently removes samples taken before the cutoff, including soft-deleted ones.
//
// Returns the number of rows removed.
func (r *StatsRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM stats_samples WHERE sampled_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune stats samples: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

// Record stores one sample of stats taken at sampledAt with the given free space.
func (r *StatsRepository) Record(stats transmission.SessionStats, freeSpace int64, sampledAt time.Time) (*models.StatsSample, error) {
	sample := models.NewStatsSample(0, stats, sampledAt)
	sample.SetFreeSpace(freeSpace)
	if err := r.Create(sample); err != nil {
		return nil, err
	}
	return sample, nil
}

func (r *StatsRepository) query(query string, args ...any) ([]*models.StatsSample, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats samples: %w", err)
	}
	defer rows.Close()

	var samples []*models.StatsSample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return samples, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSample scans a single row into a [models.StatsSample]
func scanSample(row scanner) (*models.StatsSample, error) {
	var (
		id        string
		sequence  int
		stats     transmission.SessionStats
		freeSpace int64
		sampledAt time.Time
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(
		&id, &sequence,
		&stats.DownloadSpeed, &stats.UploadSpeed,
		&stats.ActiveTorrentCount, &stats.PausedTorrentCount, &stats.TorrentCount,
		&stats.CumulativeStats.DownloadedBytes, &stats.CumulativeStats.UploadedBytes,
		&freeSpace, &sampledAt, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stats sample: %w", err)
	}

	sample := models.NewStatsSample(sequence, stats, sampledAt)
	sample.SetID(id)
	sample.SetFreeSpace(freeSpace)
	sample.SetCreatedAt(createdAt)
	sample.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		sample.SetDeletedAt(&deletedAt.Time)
	}

	return sample, nil
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s not found or already deleted", shared.ErrSampleNotFound, id)
	}
	return nil
}
