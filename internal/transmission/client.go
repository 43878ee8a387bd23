package transmission

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/trx/internal/shared"
)

// Caller performs a checked RPC call. Implemented by [rpc.Client].
type Caller interface {
	Call(ctx context.Context, method string, args, out any) error
}

// Client exposes the daemon's RPC methods.
type Client struct {
	rpc Caller
}

// NewClient creates a new [Client] calling through c.
func NewClient(c Caller) *Client {
	return &Client{rpc: c}
}

type idsArgs struct {
	IDs []int `json:"ids"`
}

// GetTorrents lists torrents. Fields default to [TorrentListFields].
func (c *Client) GetTorrents(ctx context.Context, opts GetTorrentsOptions) ([]Torrent, error) {
	if len(opts.Fields) == 0 {
		opts.Fields = TorrentListFields
	}

	var out struct {
		Torrents []Torrent `json:"torrents"`
	}
	if err := c.rpc.Call(ctx, "torrent-get", opts, &out); err != nil {
		return nil, err
	}
	return out.Torrents, nil
}

// GetTorrent fetches one torrent with [TorrentDetailFields].
func (c *Client) GetTorrent(ctx context.Context, id int) (*Torrent, error) {
	torrents, err := c.GetTorrents(ctx, GetTorrentsOptions{Fields: TorrentDetailFields, IDs: []int{id}})
	if err != nil {
		return nil, err
	}
	if len(torrents) == 0 {
		return nil, fmt.Errorf("%w: %d", shared.ErrTorrentNotFound, id)
	}
	return &torrents[0], nil
}

// AddTorrent adds a magnet link, URL or base64 metainfo.
func (c *Client) AddTorrent(ctx context.Context, opts AddTorrentOptions) (*AddResult, error) {
	if opts.Filename == "" && opts.Metainfo == "" {
		return nil, fmt.Errorf("%w: filename or metainfo", shared.ErrMissingArgument)
	}

	var out struct {
		Added     *AddedTorrent `json:"torrent-added"`
		Duplicate *AddedTorrent `json:"torrent-duplicate"`
	}
	if err := c.rpc.Call(ctx, "torrent-add", opts, &out); err != nil {
		return nil, err
	}

	switch {
	case out.Added != nil:
		return &AddResult{Torrent: *out.Added}, nil
	case out.Duplicate != nil:
		return &AddResult{Torrent: *out.Duplicate, Duplicate: true}, nil
	default:
		return nil, fmt.Errorf("%w: torrent-add returned no torrent", shared.ErrAPIRequest)
	}
}

// AddTorrentFile reads a .torrent file and adds its content.
func (c *Client) AddTorrentFile(ctx context.Context, path string, opts AddTorrentOptions) (*AddResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read torrent file: %w", err)
	}

	opts.Filename = ""
	opts.Metainfo = base64.StdEncoding.EncodeToString(content)
	return c.AddTorrent(ctx, opts)
}

// RemoveTorrents removes torrents, deleting their data when deleteData is set.
func (c *Client) RemoveTorrents(ctx context.Context, ids []int, deleteData bool) error {
	if len(ids) == 0 {
		return shared.ErrNoTorrentsSelected
	}

	args := struct {
		IDs             []int `json:"ids"`
		DeleteLocalData bool  `json:"delete-local-data"`
	}{ids, deleteData}
	return c.rpc.Call(ctx, "torrent-remove", args, nil)
}

// SetTorrent changes per-torrent settings.
func (c *Client) SetTorrent(ctx context.Context, opts SetTorrentOptions) error {
	if len(opts.IDs) == 0 {
		return shared.ErrNoTorrentsSelected
	}
	return c.rpc.Call(ctx, "torrent-set", opts, nil)
}

// SetLabels replaces the labels of torrents. An empty list clears them.
func (c *Client) SetLabels(ctx context.Context, ids []int, labels []Label) error {
	if len(ids) == 0 {
		return shared.ErrNoTorrentsSelected
	}

	args := struct {
		IDs    []int    `json:"ids"`
		Labels []string `json:"labels"`
	}{ids, EncodeLabels(labels)}
	return c.rpc.Call(ctx, "torrent-set", args, nil)
}

// SetTrackers replaces the tracker list of torrents.
func (c *Client) SetTrackers(ctx context.Context, ids []int, announces []string) error {
	list := strings.Join(announces, "\n")
	return c.SetTorrent(ctx, SetTorrentOptions{IDs: ids, TrackerList: &list})
}

func (c *Client) action(ctx context.Context, method string, ids []int) error {
	if len(ids) == 0 {
		return shared.ErrNoTorrentsSelected
	}
	return c.rpc.Call(ctx, method, idsArgs{IDs: ids}, nil)
}

// StartTorrents resumes torrents.
func (c *Client) StartTorrents(ctx context.Context, ids []int) error {
	return c.action(ctx, "torrent-start", ids)
}

// StopTorrents pauses torrents.
func (c *Client) StopTorrents(ctx context.Context, ids []int) error {
	return c.action(ctx, "torrent-stop", ids)
}

// VerifyTorrents queues torrents for verification.
func (c *Client) VerifyTorrents(ctx context.Context, ids []int) error {
	return c.action(ctx, "torrent-verify", ids)
}

// ReannounceTorrents asks trackers for more peers.
func (c *Client) ReannounceTorrents(ctx context.Context, ids []int) error {
	return c.action(ctx, "torrent-reannounce", ids)
}

// RenamePath renames a file or directory inside a torrent.
func (c *Client) RenamePath(ctx context.Context, id int, path, name string) (*RenameResult, error) {
	if path == "" || name == "" {
		return nil, fmt.Errorf("%w: path and name", shared.ErrMissingArgument)
	}

	args := struct {
		IDs  []int  `json:"ids"`
		Path string `json:"path"`
		Name string `json:"name"`
	}{[]int{id}, path, name}

	var out RenameResult
	if err := c.rpc.Call(ctx, "torrent-rename-path", args, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetLocation changes the download directory of torrents, moving the data when move is set.
func (c *Client) SetLocation(ctx context.Context, ids []int, location string, move bool) error {
	if len(ids) == 0 {
		return shared.ErrNoTorrentsSelected
	}
	if location == "" {
		return fmt.Errorf("%w: location", shared.ErrMissingArgument)
	}

	args := struct {
		IDs      []int  `json:"ids"`
		Location string `json:"location"`
		Move     bool   `json:"move"`
	}{ids, location, move}
	return c.rpc.Call(ctx, "torrent-set-location", args, nil)
}

// SessionStats returns transfer speeds, counts and totals.
func (c *Client) SessionStats(ctx context.Context) (*SessionStats, error) {
	var out SessionStats
	if err := c.rpc.Call(ctx, "session-stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FreeSpace returns the free space available at path on the daemon host.
func (c *Client) FreeSpace(ctx context.Context, path string) (*FreeSpace, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	var out FreeSpace
	if err := c.rpc.Call(ctx, "free-space", map[string]string{"path": path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Session returns the daemon settings.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.rpc.Call(ctx, "session-get", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetSession changes daemon settings. Only non-nil fields are sent.
func (c *Client) SetSession(ctx context.Context, settings SessionSettings) error {
	b, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode session settings: %w", err)
	}
	if string(b) == "{}" {
		return fmt.Errorf("%w: no settings given", shared.ErrMissingArgument)
	}
	return c.rpc.Call(ctx, "session-set", json.RawMessage(b), nil)
}

// PortTest asks the daemon whether its peer port is reachable. ipProtocol may be "", "ipv4" or "ipv6".
func (c *Client) PortTest(ctx context.Context, ipProtocol string) (*PortTestResult, error) {
	var args any
	if ipProtocol != "" {
		args = map[string]string{"ip_protocol": ipProtocol}
	}

	var out PortTestResult
	if err := c.rpc.Call(ctx, "port-test", args, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
