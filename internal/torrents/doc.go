// package torrents builds the torrent table view: tabs, column filters,
// sorting, pagination and facets over a torrent-get snapshot.
//
// Apply runs the stages in order: tab, column filters, sort, page. Counts per
// tab are computed with the column filters applied; facets are computed from
// the whole snapshot.
package torrents
