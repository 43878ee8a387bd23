package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/transmission"
)

// UnknownFreeSpace marks a sample taken before the download dir was known.
const UnknownFreeSpace int64 = -1

// StatsSample is a persisted point of session stats.
type StatsSample struct {
	id              string
	sequence        int
	downloadSpeed   int64
	uploadSpeed     int64
	activeTorrents  int
	pausedTorrents  int
	totalTorrents   int
	downloadedBytes int64
	uploadedBytes   int64
	freeSpace       int64
	sampledAt       time.Time
	createdAt       time.Time
	updatedAt       time.Time
	deletedAt       *time.Time
}

// NewStatsSample creates a sample of stats taken at sampledAt.
func NewStatsSample(sequence int, stats transmission.SessionStats, sampledAt time.Time) *StatsSample {
	now := time.Now()
	return &StatsSample{
		sequence:        sequence,
		downloadSpeed:   stats.DownloadSpeed,
		uploadSpeed:     stats.UploadSpeed,
		activeTorrents:  stats.ActiveTorrentCount,
		pausedTorrents:  stats.PausedTorrentCount,
		totalTorrents:   stats.TorrentCount,
		downloadedBytes: stats.CumulativeStats.DownloadedBytes,
		uploadedBytes:   stats.CumulativeStats.UploadedBytes,
		freeSpace:       UnknownFreeSpace,
		sampledAt:       sampledAt,
		createdAt:       now,
		updatedAt:       now,
	}
}

func (s *StatsSample) ID() string             { return s.id }
func (s *StatsSample) Sequence() int          { return s.sequence }
func (s *StatsSample) DownloadSpeed() int64   { return s.downloadSpeed }
func (s *StatsSample) UploadSpeed() int64     { return s.uploadSpeed }
func (s *StatsSample) ActiveTorrents() int    { return s.activeTorrents }
func (s *StatsSample) PausedTorrents() int    { return s.pausedTorrents }
func (s *StatsSample) TotalTorrents() int     { return s.totalTorrents }
func (s *StatsSample) DownloadedBytes() int64 { return s.downloadedBytes }
func (s *StatsSample) UploadedBytes() int64   { return s.uploadedBytes }
func (s *StatsSample) FreeSpace() int64       { return s.freeSpace }
func (s *StatsSample) SampledAt() time.Time   { return s.sampledAt }
func (s *StatsSample) CreatedAt() time.Time   { return s.createdAt }
func (s *StatsSample) UpdatedAt() time.Time   { return s.updatedAt }
func (s *StatsSample) DeletedAt() *time.Time  { return s.deletedAt }

func (s *StatsSample) SetID(id string)               { s.id = id }
func (s *StatsSample) SetSequence(sequence int)      { s.sequence = sequence }
func (s *StatsSample) SetFreeSpace(bytes int64)      { s.freeSpace = bytes }
func (s *StatsSample) SetCreatedAt(t time.Time)      { s.createdAt = t }
func (s *StatsSample) SetUpdatedAt(t time.Time)      { s.updatedAt = t }
func (s *StatsSample) SetDeletedAt(t *time.Time)     { s.deletedAt = t }
func (s *StatsSample) SetSpeeds(down, up int64)      { s.downloadSpeed, s.uploadSpeed = down, up }
func (s *StatsSample) SetTransferred(down, up int64) { s.downloadedBytes, s.uploadedBytes = down, up }

// IsDeleted reports whether the sample was soft-deleted.
func (s *StatsSample) IsDeleted() bool { return s.deletedAt != nil }

// Validate rejects samples without a time or with negative counters.
func (s *StatsSample) Validate() error {
	if s.sampledAt.IsZero() {
		return fmt.Errorf("%w: sampled_at is required", shared.ErrInvalidInput)
	}
	if s.downloadSpeed < 0 || s.uploadSpeed < 0 {
		return fmt.Errorf("%w: speeds must not be negative", shared.ErrInvalidInput)
	}
	if s.activeTorrents < 0 || s.pausedTorrents < 0 || s.totalTorrents < 0 {
		return fmt.Errorf("%w: torrent counts must not be negative", shared.ErrInvalidInput)
	}
	if s.downloadedBytes < 0 || s.uploadedBytes < 0 {
		return fmt.Errorf("%w: transferred bytes must not be negative", shared.ErrInvalidInput)
	}
	if s.freeSpace < UnknownFreeSpace {
		return fmt.Errorf("%w: free space must not be below -1", shared.ErrInvalidInput)
	}
	return nil
}

// MarshalJSON encodes the sample for the dashboard API.
func (s *StatsSample) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID              string    `json:"id"`
		Sequence        int       `json:"sequence"`
		DownloadSpeed   int64     `json:"download_speed"`
		UploadSpeed     int64     `json:"upload_speed"`
		ActiveTorrents  int       `json:"active_torrents"`
		PausedTorrents  int       `json:"paused_torrents"`
		TotalTorrents   int       `json:"total_torrents"`
		DownloadedBytes int64     `json:"downloaded_bytes"`
		UploadedBytes   int64     `json:"uploaded_bytes"`
		FreeSpace       int64     `json:"free_space"`
		SampledAt       time.Time `json:"sampled_at"`
	}{
		s.id, s.sequence, s.downloadSpeed, s.uploadSpeed,
		s.activeTorrents, s.pausedTorrents, s.totalTorrents,
		s.downloadedBytes, s.uploadedBytes, s.freeSpace, s.sampledAt,
	})
}
