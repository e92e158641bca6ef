package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTrackNotFound is returned when a radio track does not exist.
var ErrTrackNotFound = errors.New("track not found")

// Track is a song on the community radio player. FileKey is the object
// storage key backing FileURL, kept so the audio can be cleaned up when
// the track is removed.
type Track struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	FileURL   string    `json:"file_url"`
	FileKey   string    `json:"-"`
	ImageURL  string    `json:"image_url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Tracks is the radio playlist repository.
type Tracks struct {
	pool *pgxpool.Pool
}

// NewTracks creates the radio tracks repository.
func NewTracks(pool *pgxpool.Pool) *Tracks {
	return &Tracks{pool: pool}
}

const trackColumns = `id, title, artist, file_url, file_key, image_url,
	is_active, created_at`

func scanTrack(row pgx.Row) (Track, error) {
	var t Track
	err := row.Scan(
		&t.ID, &t.Title, &t.Artist, &t.FileURL, &t.FileKey, &t.ImageURL,
		&t.IsActive, &t.CreatedAt,
	)
	return t, err
}

// List returns radio tracks newest-first. playableOnly restricts the
// result to active tracks that have audio attached (the public playlist).
func (r *Tracks) List(ctx context.Context, playableOnly bool) ([]Track, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+trackColumns+` FROM radio_tracks
		WHERE NOT $1 OR (is_active AND file_url <> '')
		ORDER BY created_at DESC`,
		playableOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning track row: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// Get returns a single track by ID.
func (r *Tracks) Get(ctx context.Context, id uuid.UUID) (Track, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+trackColumns+` FROM radio_tracks WHERE id = $1`, id)
	t, err := scanTrack(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Track{}, ErrTrackNotFound
		}
		return Track{}, fmt.Errorf("getting track %s: %w", id, err)
	}
	return t, nil
}

// CreateTrackParams holds the fields for a new radio track.
type CreateTrackParams struct {
	Title    string
	Artist   string
	ImageURL string
}

// Create inserts a new radio track. The audio file is attached separately
// with SetAudio.
func (r *Tracks) Create(ctx context.Context, params CreateTrackParams) (Track, error) {
	t := Track{
		ID:        uuid.New(),
		Title:     params.Title,
		Artist:    params.Artist,
		ImageURL:  params.ImageURL,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO radio_tracks (id, title, artist, file_url, file_key,
			image_url, is_active, created_at)
		VALUES ($1, $2, $3, '', '', $4, $5, $6)`,
		t.ID, t.Title, t.Artist, t.ImageURL, t.IsActive, t.CreatedAt,
	)
	if err != nil {
		return Track{}, fmt.Errorf("inserting track %q: %w", params.Title, err)
	}
	return t, nil
}

// SetAudio attaches an uploaded audio file to a track.
func (r *Tracks) SetAudio(ctx context.Context, id uuid.UUID, key, url string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE radio_tracks SET file_key = $1, file_url = $2 WHERE id = $3`,
		key, url, id)
	if err != nil {
		return fmt.Errorf("setting track audio %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTrackNotFound
	}
	return nil
}

// Delete removes a radio track row. Callers are expected to clean up the
// stored audio afterwards using the track's FileKey.
func (r *Tracks) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM radio_tracks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting track %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTrackNotFound
	}
	return nil
}
