package transmission

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/trx/internal/shared"
)

// Status is the torrent activity state reported by the daemon.
type Status int

const (
	StatusStopped Status = iota
	StatusCheckWait
	StatusChecking
	StatusDownloadWait
	StatusDownloading
	StatusSeedWait
	StatusSeeding
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "Stopped"
	case StatusCheckWait:
		return "Queued to verify"
	case StatusChecking:
		return "Verifying"
	case StatusDownloadWait:
		return "Queued to download"
	case StatusDownloading:
		return "Downloading"
	case StatusSeedWait:
		return "Queued to seed"
	case StatusSeeding:
		return "Seeding"
	default:
		return "Unknown"
	}
}

// ParseStatus accepts a status number or its display name, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	if n, err := strconv.Atoi(raw); err == nil && n >= int(StatusStopped) && n <= int(StatusSeeding) {
		return Status(n), nil
	}
	for s := StatusStopped; s <= StatusSeeding; s++ {
		if strings.EqualFold(s.String(), raw) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, raw)
}

// ETA sentinels.
const (
	ETANotAvailable = -1
	ETAUnknown      = -2
)

// Torrent is a torrent as returned by torrent-get. Only requested fields are populated.
type Torrent struct {
	ID                 int            `json:"id"`
	Name               string         `json:"name"`
	Status             Status         `json:"status"`
	HashString         string         `json:"hashString"`
	TotalSize          int64          `json:"totalSize"`
	PercentDone        float64        `json:"percentDone"`
	RecheckProgress    float64        `json:"recheckProgress"`
	LeftUntilDone      int64          `json:"leftUntilDone"`
	RateDownload       int64          `json:"rateDownload"`
	RateUpload         int64          `json:"rateUpload"`
	PeersGettingFromUs int            `json:"peersGettingFromUs"`
	PeersSendingToUs   int            `json:"peersSendingToUs"`
	UploadRatio        float64        `json:"uploadRatio"`
	UploadedEver       int64          `json:"uploadedEver"`
	DownloadedEver     int64          `json:"downloadedEver"`
	DownloadDir        string         `json:"downloadDir"`
	Error              int            `json:"error"`
	ErrorString        string         `json:"errorString"`
	AddedDate          int64          `json:"addedDate"`
	DoneDate           int64          `json:"doneDate"`
	ActivityDate       int64          `json:"activityDate"`
	DateCreated        int64          `json:"dateCreated"`
	QueuePosition      int            `json:"queuePosition"`
	ETA                int64          `json:"eta"`
	Labels             []string       `json:"labels"`
	TrackerStats       []TrackerStats `json:"trackerStats"`
	Trackers           []Tracker      `json:"trackers,omitempty"`
	Files              []File         `json:"files,omitempty"`
	FileStats          []FileStat     `json:"fileStats,omitempty"`
	Peers              []Peer         `json:"peers,omitempty"`
	Pieces             string         `json:"pieces,omitempty"`
	PieceCount         int            `json:"pieceCount,omitempty"`
	PieceSize          int64          `json:"pieceSize,omitempty"`
	Comment            string         `json:"comment,omitempty"`
	Creator            string         `json:"creator,omitempty"`
}

// Progress returns the verification progress while checking and the download progress otherwise.
func (t *Torrent) Progress() float64 {
	if t.Status == StatusChecking {
		return t.RecheckProgress
	}
	return t.PercentDone
}

// DownloadPeers sums the leecher counts reported by every tracker.
func (t *Torrent) DownloadPeers() int {
	total := 0
	for _, ts := range t.TrackerStats {
		total += ts.LeecherCount
	}
	return total
}

// UploadPeers sums the seeder counts reported by every tracker.
func (t *Torrent) UploadPeers() int {
	total := 0
	for _, ts := range t.TrackerStats {
		total += ts.SeederCount
	}
	return total
}

// TrackerHost returns the host of the first tracker, or "".
func (t *Torrent) TrackerHost() string {
	if len(t.TrackerStats) == 0 {
		return ""
	}
	return t.TrackerStats[0].Host
}

// HasError reports whether the daemon flagged the torrent with an error.
func (t *Torrent) HasError() bool { return t.Error != 0 }

// HasWarning reports a torrent without error whose first tracker failed its last announce.
func (t *Torrent) HasWarning() bool {
	return t.Error == 0 && len(t.TrackerStats) > 0 && !t.TrackerStats[0].LastAnnounceSucceeded
}

// ParsedLabels decodes the stored label strings.
func (t *Torrent) ParsedLabels() []Label { return ParseLabels(t.Labels) }

// Announces returns the announce URLs of the torrent in tracker order.
func (t *Torrent) Announces() []string {
	urls := make([]string, 0, len(t.TrackerStats))
	for _, ts := range t.TrackerStats {
		urls = append(urls, ts.Announce)
	}
	return urls
}

// AnnouncesTo reports whether any tracker of the torrent uses announce.
func (t *Torrent) AnnouncesTo(announce string) bool {
	for _, ts := range t.TrackerStats {
		if strings.EqualFold(ts.Announce, announce) {
			return true
		}
	}
	return false
}

// TrackerStats is the per-tracker state of a torrent.
type TrackerStats struct {
	ID                    int    `json:"id"`
	Announce              string `json:"announce"`
	AnnounceState         int    `json:"announceState"`
	DownloadCount         int    `json:"downloadCount"`
	HasAnnounced          bool   `json:"hasAnnounced"`
	HasScraped            bool   `json:"hasScraped"`
	Host                  string `json:"host"`
	IsBackup              bool   `json:"isBackup"`
	LastAnnouncePeerCount int    `json:"lastAnnouncePeerCount"`
	LastAnnounceResult    string `json:"lastAnnounceResult"`
	LastAnnounceStartTime int64  `json:"lastAnnounceStartTime"`
	LastAnnounceSucceeded bool   `json:"lastAnnounceSucceeded"`
	LastAnnounceTime      int64  `json:"lastAnnounceTime"`
	LastAnnounceTimedOut  bool   `json:"lastAnnounceTimedOut"`
	LastScrapeResult      string `json:"lastScrapeResult"`
	LastScrapeStartTime   int64  `json:"lastScrapeStartTime"`
	LastScrapeSucceeded   bool   `json:"lastScrapeSucceeded"`
	LastScrapeTime        int64  `json:"lastScrapeTime"`
	LastScrapeTimedOut    bool   `json:"lastScrapeTimedOut"`
	LeecherCount          int    `json:"leecherCount"`
	NextAnnounceTime      int64  `json:"nextAnnounceTime"`
	NextScrapeTime        int64  `json:"nextScrapeTime"`
	Scrape                string `json:"scrape"`
	ScrapeState           int    `json:"scrapeState"`
	SeederCount           int    `json:"seederCount"`
	Tier                  int    `json:"tier"`
}

// Tracker is a configured tracker of a torrent.
type Tracker struct {
	ID       int    `json:"id"`
	Announce string `json:"announce"`
	Scrape   string `json:"scrape"`
	Tier     int    `json:"tier"`
}

// File is a file contained in a torrent.
type File struct {
	Name           string `json:"name"`
	Length         int64  `json:"length"`
	BytesCompleted int64  `json:"bytesCompleted"`
}

// FileStat is the per-file transfer state of a torrent.
type FileStat struct {
	BytesCompleted int64 `json:"bytesCompleted"`
	Wanted         bool  `json:"wanted"`
	Priority       int   `json:"priority"`
}

// Peer is a connected peer of a torrent.
type Peer struct {
	Address            string  `json:"address"`
	ClientName         string  `json:"clientName"`
	ClientIsChoked     bool    `json:"clientIsChoked"`
	ClientIsInterested bool    `json:"clientIsInterested"`
	FlagStr            string  `json:"flagStr"`
	IsDownloadingFrom  bool    `json:"isDownloadingFrom"`
	IsEncrypted        bool    `json:"isEncrypted"`
	IsIncoming         bool    `json:"isIncoming"`
	IsUploadingTo      bool    `json:"isUploadingTo"`
	IsUTP              bool    `json:"isUTP"`
	PeerIsChoked       bool    `json:"peerIsChoked"`
	PeerIsInterested   bool    `json:"peerIsInterested"`
	Port               int     `json:"port"`
	Progress           float64 `json:"progress"`
	RateToClient       int64   `json:"rateToClient"`
	RateToPeer         int64   `json:"rateToPeer"`
}

// GetTorrentsOptions selects the torrents and fields of a torrent-get.
type GetTorrentsOptions struct {
	Fields []string `json:"fields"`
	IDs    []int    `json:"ids,omitempty"`
}

// AddTorrentOptions are the arguments of torrent-add. One of Filename or Metainfo is required.
type AddTorrentOptions struct {
	Filename          string   `json:"filename,omitempty"` // magnet link or URL
	Metainfo          string   `json:"metainfo,omitempty"` // base64 .torrent content
	DownloadDir       string   `json:"download-dir,omitempty"`
	Paused            bool     `json:"paused,omitempty"`
	PeerLimit         int      `json:"peer-limit,omitempty"`
	BandwidthPriority int      `json:"bandwidthPriority,omitempty"`
	Cookies           string   `json:"cookies,omitempty"`
	Labels            []string `json:"labels,omitempty"`
}

// AddedTorrent identifies a torrent returned by torrent-add.
type AddedTorrent struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	HashString string `json:"hashString"`
}

// AddResult reports the torrent added, or the existing one when Duplicate is set.
type AddResult struct {
	Torrent   AddedTorrent
	Duplicate bool
}

// SetTorrentOptions are the arguments of torrent-set. Nil fields are not sent.
type SetTorrentOptions struct {
	IDs               []int    `json:"ids"`
	Labels            []string `json:"labels,omitempty"`
	TrackerList       *string  `json:"trackerList,omitempty"`
	DownloadLimit     *int     `json:"downloadLimit,omitempty"`
	DownloadLimited   *bool    `json:"downloadLimited,omitempty"`
	UploadLimit       *int     `json:"uploadLimit,omitempty"`
	UploadLimited     *bool    `json:"uploadLimited,omitempty"`
	SeedRatioLimit    *float64 `json:"seedRatioLimit,omitempty"`
	SeedRatioMode     *int     `json:"seedRatioMode,omitempty"`
	BandwidthPriority *int     `json:"bandwidthPriority,omitempty"`
	QueuePosition     *int     `json:"queuePosition,omitempty"`
}

// RenameResult is the answer of torrent-rename-path.
type RenameResult struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
	Name string `json:"name"`
}

// StatItem holds transfer totals for a period.
type StatItem struct {
	DownloadedBytes int64 `json:"downloadedBytes"`
	UploadedBytes   int64 `json:"uploadedBytes"`
	FilesAdded      int64 `json:"filesAdded"`
	SecondsActive   int64 `json:"secondsActive"`
	SessionCount    int64 `json:"sessionCount"`
}

// SessionStats is the answer of session-stats.
type SessionStats struct {
	ActiveTorrentCount int      `json:"activeTorrentCount"`
	PausedTorrentCount int      `json:"pausedTorrentCount"`
	TorrentCount       int      `json:"torrentCount"`
	DownloadSpeed      int64    `json:"downloadSpeed"`
	UploadSpeed        int64    `json:"uploadSpeed"`
	CumulativeStats    StatItem `json:"cumulative-stats"`
	CurrentStats       StatItem `json:"current-stats"`
}

// FreeSpace is the answer of free-space.
type FreeSpace struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size-bytes"`
	TotalSize int64  `json:"total_size"`
}

// Session is the answer of session-get.
type Session struct {
	Version                string  `json:"version"`
	RPCVersion             int     `json:"rpc-version"`
	ConfigDir              string  `json:"config-dir"`
	DownloadDir            string  `json:"download-dir"`
	IncompleteDir          string  `json:"incomplete-dir"`
	IncompleteDirEnabled   bool    `json:"incomplete-dir-enabled"`
	SpeedLimitDown         int     `json:"speed-limit-down"`
	SpeedLimitDownEnabled  bool    `json:"speed-limit-down-enabled"`
	SpeedLimitUp           int     `json:"speed-limit-up"`
	SpeedLimitUpEnabled    bool    `json:"speed-limit-up-enabled"`
	AltSpeedDown           int     `json:"alt-speed-down"`
	AltSpeedUp             int     `json:"alt-speed-up"`
	AltSpeedEnabled        bool    `json:"alt-speed-enabled"`
	PeerPort               int     `json:"peer-port"`
	PeerPortRandomOnStart  bool    `json:"peer-port-random-on-start"`
	PortForwardingEnabled  bool    `json:"port-forwarding-enabled"`
	UTPEnabled             bool    `json:"utp-enabled"`
	DHTEnabled             bool    `json:"dht-enabled"`
	PEXEnabled             bool    `json:"pex-enabled"`
	LPDEnabled             bool    `json:"lpd-enabled"`
	Encryption             string  `json:"encryption"`
	RenamePartialFiles     bool    `json:"rename-partial-files"`
	CacheSizeMB            int     `json:"cache-size-mb"`
	DownloadQueueEnabled   bool    `json:"download-queue-enabled"`
	DownloadQueueSize      int     `json:"download-queue-size"`
	SeedQueueEnabled       bool    `json:"seed-queue-enabled"`
	SeedQueueSize          int     `json:"seed-queue-size"`
	QueueStalledEnabled    bool    `json:"queue-stalled-enabled"`
	QueueStalledMinutes    int     `json:"queue-stalled-minutes"`
	SeedRatioLimit         float64 `json:"seedRatioLimit"`
	SeedRatioLimited       bool    `json:"seedRatioLimited"`
	IdleSeedingLimit       int     `json:"idle-seeding-limit"`
	IdleSeedingLimitEnable bool    `json:"idle-seeding-limit-enabled"`
}

// SessionSettings are the arguments of session-set. Nil fields are not sent.
type SessionSettings struct {
	DownloadDir            *string  `json:"download-dir,omitempty"`
	IncompleteDir          *string  `json:"incomplete-dir,omitempty"`
	IncompleteDirEnabled   *bool    `json:"incomplete-dir-enabled,omitempty"`
	SpeedLimitDown         *int     `json:"speed-limit-down,omitempty"`
	SpeedLimitDownEnabled  *bool    `json:"speed-limit-down-enabled,omitempty"`
	SpeedLimitUp           *int     `json:"speed-limit-up,omitempty"`
	SpeedLimitUpEnabled    *bool    `json:"speed-limit-up-enabled,omitempty"`
	AltSpeedDown           *int     `json:"alt-speed-down,omitempty"`
	AltSpeedUp             *int     `json:"alt-speed-up,omitempty"`
	AltSpeedEnabled        *bool    `json:"alt-speed-enabled,omitempty"`
	PeerPort               *int     `json:"peer-port,omitempty"`
	PeerPortRandomOnStart  *bool    `json:"peer-port-random-on-start,omitempty"`
	PortForwardingEnabled  *bool    `json:"port-forwarding-enabled,omitempty"`
	UTPEnabled             *bool    `json:"utp-enabled,omitempty"`
	DHTEnabled             *bool    `json:"dht-enabled,omitempty"`
	PEXEnabled             *bool    `json:"pex-enabled,omitempty"`
	LPDEnabled             *bool    `json:"lpd-enabled,omitempty"`
	Encryption             *string  `json:"encryption,omitempty"`
	RenamePartialFiles     *bool    `json:"rename-partial-files,omitempty"`
	CacheSizeMB            *int     `json:"cache-size-mb,omitempty"`
	DownloadQueueEnabled   *bool    `json:"download-queue-enabled,omitempty"`
	DownloadQueueSize      *int     `json:"download-queue-size,omitempty"`
	SeedQueueEnabled       *bool    `json:"seed-queue-enabled,omitempty"`
	SeedQueueSize          *int     `json:"seed-queue-size,omitempty"`
	QueueStalledEnabled    *bool    `json:"queue-stalled-enabled,omitempty"`
	QueueStalledMinutes    *int     `json:"queue-stalled-minutes,omitempty"`
	SeedRatioLimit         *float64 `json:"seedRatioLimit,omitempty"`
	SeedRatioLimited       *bool    `json:"seedRatioLimited,omitempty"`
	IdleSeedingLimit       *int     `json:"idle-seeding-limit,omitempty"`
	IdleSeedingLimitEnable *bool    `json:"idle-seeding-limit-enabled,omitempty"`
}

// PortTestResult is the answer of port-test.
type PortTestResult struct {
	PortIsOpen bool   `json:"port-is-open"`
	IPProtocol string `json:"ip_protocol,omitempty"`
}
