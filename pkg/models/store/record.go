package store

// RawRecord is one hub row as read from the source store. The store is the
// source of truth; records are never written back.
type RawRecord struct {
	ID         string // reference column
	ReceivedAt string // display timestamp selected by the query
	Payload    string // JSON document from the data column
}
