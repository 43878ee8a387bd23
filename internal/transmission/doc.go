// package transmission provides typed wrappers over the Transmission RPC methods
//
// Every wrapper goes through [rpc.Client.Call], so each one negotiates the
// session id and fails with an [rpc.ProtocolError] when the daemon does not
// answer with the success sentinel.
//
// # Labels
//
// The daemon stores labels as plain strings. trx stores a JSON object
// {"text": ..., "color": ...} in each one; strings that are not such an object
// are read back as a label with that text and no color.
//
// # Selections
//
// Methods taking a list of ids reject an empty list with
// [shared.ErrNoTorrentsSelected] before sending anything, since the daemon
// treats a missing id list as every torrent.
package transmission
