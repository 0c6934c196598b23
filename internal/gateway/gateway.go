// Package gateway is the boundary to the sv.link batch backend. Every call
// is a single JSON POST; results come back normalized into link types.
package gateway

import (
	"context"

	"svlink/internal/link"
)

// Gateway performs the remote batch operations.
type Gateway interface {
	Shorten(ctx context.Context, credential string, urls []string) (Batch, error)
	Lookup(ctx context.Context, credential string, links []string) (Batch, error)
	Resolve(ctx context.Context, credential string, links []string) ([]ResolvedLink, error)
	Update(ctx context.Context, credential string, changes []link.Change) (Batch, error)
	Export(ctx context.Context, kind ExportKind, results []link.BatchResult) (Artifact, error)
	QRCodes(ctx context.Context, results []link.BatchResult) ([]QRCode, error)
}

// Batch is a normalized batch response.
type Batch struct {
	Results []link.BatchResult
	Summary link.Summary
}

// ResolvedLink is one item of a resolve-for-edit response.
type ResolvedLink struct {
	Link        string
	LinkID      string
	Target      string
	VisitCount  int64
	CreatedAt   string
	Description string
	Success     bool
}

// ExportKind selects the artifact an export call produces.
type ExportKind int

const (
	ExportGenerateCSV ExportKind = iota
	ExportLookupCSV
	ExportUpdateCSV
	ExportQRArchive
)

var exportPaths = map[ExportKind]string{
	ExportGenerateCSV: "/api/export/csv",
	ExportLookupCSV:   "/api/export/lookup-csv",
	ExportUpdateCSV:   "/api/export/update-csv",
	ExportQRArchive:   "/api/export/qr-zip",
}

var exportFallbackNames = map[ExportKind]string{
	ExportGenerateCSV: "sv-link-results.csv",
	ExportLookupCSV:   "sv-link-lookup.csv",
	ExportUpdateCSV:   "sv-link-update.csv",
	ExportQRArchive:   "sv-link-qrcodes.zip",
}

// CSVExport returns the CSV export kind for a pipeline.
func CSVExport(kind link.Kind) ExportKind {
	switch kind {
	case link.KindLookup:
		return ExportLookupCSV
	case link.KindUpdate:
		return ExportUpdateCSV
	default:
		return ExportGenerateCSV
	}
}

// String returns the endpoint-style name of the export.
func (k ExportKind) String() string {
	switch k {
	case ExportGenerateCSV:
		return "csv"
	case ExportLookupCSV:
		return "lookup-csv"
	case ExportUpdateCSV:
		return "update-csv"
	case ExportQRArchive:
		return "qr-zip"
	default:
		return "unknown"
	}
}

// FallbackFilename is used when the backend omits a filename.
func (k ExportKind) FallbackFilename() string {
	if name, ok := exportFallbackNames[k]; ok {
		return name
	}
	return "sv-link-export.bin"
}

// Artifact is a serialized export as returned by the backend. Content is
// still base64 encoded.
type Artifact struct {
	Content  string
	Filename string
	MimeType string
	Size     int64
}

// QRCode is one SVG of the QR gallery.
type QRCode struct {
	Index       int
	Filename    string
	SVG         string
	ShortURL    string
	OriginalURL string
}
