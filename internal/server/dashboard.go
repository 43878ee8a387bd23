package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/poller"
	"github.com/desertthunder/trx/internal/rpc"
	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/torrents"
	"github.com/desertthunder/trx/internal/transmission"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultHistoryLimit is the number of samples returned when limit is absent.
	DefaultHistoryLimit = 100
	// MaxHistoryLimit caps the limit query parameter.
	MaxHistoryLimit = 1000
	// MaxActionBody caps the size of an action request body.
	MaxActionBody = 1 << 20
)

// Action names accepted by POST /api/torrents/actions.
const (
	ActionStart      = "start"
	ActionStop       = "stop"
	ActionVerify     = "verify"
	ActionReannounce = "reannounce"
	ActionRemove     = "remove"
)

var errNoSnapshot = errors.New("no snapshot available yet")

// SnapshotSource provides the latest polled daemon state. Implemented by [poller.Poller].
type SnapshotSource interface {
	Latest() (poller.Snapshot, bool)
}

// TorrentService performs per-torrent reads and actions. Implemented by [transmission.Client].
type TorrentService interface {
	GetTorrent(ctx context.Context, id int) (*transmission.Torrent, error)
	StartTorrents(ctx context.Context, ids []int) error
	StopTorrents(ctx context.Context, ids []int) error
	VerifyTorrents(ctx context.Context, ids []int) error
	ReannounceTorrents(ctx context.Context, ids []int) error
	RemoveTorrents(ctx context.Context, ids []int, deleteData bool) error
}

// HistoryStore returns recorded stats samples. Implemented by [repositories.StatsRepository].
type HistoryStore interface {
	Latest(n int) ([]*models.StatsSample, error)
}

// Options configures a [Dashboard].
type Options struct {
	Snapshots SnapshotSource
	Torrents  TorrentService
	History   HistoryStore        // nil disables /api/stats/history
	Gatherer  prometheus.Gatherer // defaults to prometheus.DefaultGatherer
	Logger    *log.Logger
}

// ActionRequest is the body of POST /api/torrents/actions.
type ActionRequest struct {
	Action     string `json:"action"`
	IDs        []int  `json:"ids"`
	DeleteData bool   `json:"delete_data"`
}

// ActionResponse acknowledges a completed action.
type ActionResponse struct {
	Action string `json:"action"`
	IDs    []int  `json:"ids"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string     `json:"status"`
	Sequence  uint64     `json:"sequence"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Stats     *transmission.SessionStats `json:"stats"`
	FreeSpace *transmission.FreeSpace    `json:"free_space,omitempty"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// Dashboard serves the JSON API.
type Dashboard struct {
	snapshots SnapshotSource
	torrents  TorrentService
	history   HistoryStore
	gatherer  prometheus.Gatherer
	logger    *log.Logger
}

// NewDashboard creates a [Dashboard] from opts.
func NewDashboard(opts Options) *Dashboard {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Dashboard{
		snapshots: opts.Snapshots,
		torrents:  opts.Torrents,
		history:   opts.History,
		gatherer:  opts.Gatherer,
		logger:    opts.Logger,
	}
}

// Router builds a [BasicRouter] with recovery and logging middleware and every dashboard route.
func (d *Dashboard) Router() *BasicRouter {
	r := NewBasicRouter()
	r.Use(WithRecovery(d.logger), WithLogging(d.logger))

	r.HandleFunc(http.MethodGet, "/health", d.health)
	r.HandleFunc(http.MethodGet, "/api/torrents", d.listTorrents)
	r.HandleFunc(http.MethodGet, "/api/torrents/{id}", d.getTorrent)
	r.HandleFunc(http.MethodPost, "/api/torrents/actions", d.torrentAction)
	r.HandleFunc(http.MethodGet, "/api/stats", d.stats)
	r.HandleFunc(http.MethodGet, "/api/session", d.session)
	r.HandleFunc(http.MethodGet, "/api/stats/history", d.statsHistory)
	r.Handler(NewMetricsHandler(d.gatherer))
	return r
}

// MetricsHandler exposes a Prometheus gatherer at GET /metrics.
type MetricsHandler struct {
	http.Handler
}

// NewMetricsHandler creates a [MetricsHandler] for g.
func NewMetricsHandler(g prometheus.Gatherer) *MetricsHandler {
	return &MetricsHandler{Handler: promhttp.HandlerFor(g, promhttp.HandlerOpts{})}
}

// Routes implements [Handler].
func (m *MetricsHandler) Routes() []string { return []string{"GET /metrics"} }

func (d *Dashboard) health(w http.ResponseWriter, r *http.Request) {
	snap, ok := d.snapshots.Latest()
	if !ok {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "starting"})
		return
	}

	resp := HealthResponse{Status: "ok", Sequence: snap.Sequence, FetchedAt: &snap.FetchedAt}
	if snap.Err != nil {
		resp.Status = "degraded"
		resp.Error = snap.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d *Dashboard) listTorrents(w http.ResponseWriter, r *http.Request) {
	snap, ok := d.snapshots.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errNoSnapshot)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if snap.Session != nil {
		q.SessionDir = snap.Session.DownloadDir
	}

	writeJSON(w, http.StatusOK, torrents.Apply(snap.Torrents, q))
}

func (d *Dashboard) getTorrent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: torrent id %q", shared.ErrInvalidArgument, r.PathValue("id")))
		return
	}

	t, err := d.torrents.GetTorrent(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (d *Dashboard) torrentAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxActionBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	if err := d.runAction(r.Context(), req); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	d.logger.Info("torrent action", "action", req.Action, "ids", req.IDs, "delete_data", req.DeleteData)
	writeJSON(w, http.StatusOK, ActionResponse{Action: req.Action, IDs: req.IDs})
}

func (d *Dashboard) runAction(ctx context.Context, req ActionRequest) error {
	switch req.Action {
	case ActionStart:
		return d.torrents.StartTorrents(ctx, req.IDs)
	case ActionStop:
		return d.torrents.StopTorrents(ctx, req.IDs)
	case ActionVerify:
		return d.torrents.VerifyTorrents(ctx, req.IDs)
	case ActionReannounce:
		return d.torrents.ReannounceTorrents(ctx, req.IDs)
	case ActionRemove:
		return d.torrents.RemoveTorrents(ctx, req.IDs, req.DeleteData)
	default:
		return fmt.Errorf("%w: unknown action %q", shared.ErrInvalidArgument, req.Action)
	}
}

func (d *Dashboard) stats(w http.ResponseWriter, r *http.Request) {
	snap, ok := d.snapshots.Latest()
	if !ok || snap.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, errNoSnapshot)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Stats: snap.Stats, FreeSpace: snap.FreeSpace, FetchedAt: snap.FetchedAt})
}

func (d *Dashboard) session(w http.ResponseWriter, r *http.Request) {
	snap, ok := d.snapshots.Latest()
	if !ok || snap.Session == nil {
		writeError(w, http.StatusServiceUnavailable, errNoSnapshot)
		return
	}
	writeJSON(w, http.StatusOK, snap.Session)
}

func (d *Dashboard) statsHistory(w http.ResponseWriter, r *http.Request) {
	if d.history == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("stats history is not recorded"))
		return
	}

	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: limit %q", shared.ErrInvalidArgument, raw))
			return
		}
		limit = min(n, MaxHistoryLimit)
	}

	samples, err := d.history.Latest(limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if samples == nil {
		samples = []*models.StatsSample{}
	}
	writeJSON(w, http.StatusOK, samples)
}

// parseQuery reads the table view from the request query string.
func parseQuery(r *http.Request) (torrents.Query, error) {
	values := r.URL.Query()
	var q torrents.Query

	tab, err := torrents.ParseTab(values.Get("tab"))
	if err != nil {
		return q, err
	}
	q.Tab = tab

	desc, err := parseBool(values.Get("desc"))
	if err != nil {
		return q, err
	}
	if raw := values.Get("sort"); raw != "" {
		col, err := torrents.ParseColumn(raw)
		if err != nil {
			return q, err
		}
		q.Sort = &torrents.Sort{Column: col, Desc: desc}
	} else if values.Has("desc") {
		q.Sort = &torrents.Sort{Column: torrents.DefaultSort.Column, Desc: desc}
	}

	if q.Page, err = parseNonNegative(values, "page"); err != nil {
		return q, err
	}
	if q.Size, err = parseNonNegative(values, "size"); err != nil {
		return q, err
	}

	if raw := values.Get("status"); raw != "" {
		status, err := transmission.ParseStatus(raw)
		if err != nil {
			return q, err
		}
		q.Filters.Status = &status
	}
	q.Filters.Trackers = values["tracker"]
	q.Filters.Labels = values["label"]
	q.Filters.Paths = values["path"]
	q.Filters.Name = strings.TrimSpace(values.Get("q"))

	return q, nil
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: desc %q", shared.ErrInvalidArgument, raw)
	}
	return b, nil
}

func parseNonNegative(values map[string][]string, key string) (int, error) {
	raw := ""
	if v := values[key]; len(v) > 0 {
		raw = v[0]
	}
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s %q", shared.ErrInvalidArgument, key, raw)
	}
	return n, nil
}

// statusFor maps an error to the HTTP status of its response.
func statusFor(err error) int {
	var transportErr *rpc.TransportError
	switch {
	case errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrNoTorrentsSelected):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrTorrentNotFound), errors.Is(err, shared.ErrSampleNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &transportErr), errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
