package transmission

// TorrentListFields are requested for the torrent table.
var TorrentListFields = []string{
	"id", "name", "status", "hashString", "totalSize", "percentDone",
	"addedDate", "trackerStats", "leftUntilDone", "rateDownload", "rateUpload",
	"recheckProgress", "peersGettingFromUs", "peersSendingToUs", "uploadRatio",
	"uploadedEver", "downloadedEver", "downloadDir", "error", "errorString",
	"doneDate", "queuePosition", "activityDate", "eta", "labels",
}

// TorrentDetailFields are requested for a single torrent.
var TorrentDetailFields = []string{
	"id", "name", "status", "hashString", "totalSize", "percentDone",
	"recheckProgress", "eta", "addedDate", "doneDate", "activityDate",
	"fileStats", "trackerStats", "peers", "leftUntilDone", "rateDownload",
	"rateUpload", "peersGettingFromUs", "peersSendingToUs", "uploadedEver",
	"downloadedEver", "uploadRatio", "error", "errorString", "pieces",
	"pieceCount", "pieceSize", "files", "trackers", "comment", "dateCreated",
	"creator", "downloadDir", "labels",
}
