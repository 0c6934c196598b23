// Package export asks the backend to serialize result sets (CSV, QR
// archive, QR gallery SVGs), decodes the artifacts and hands them to a
// Sink for delivery.
package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"svlink/internal/gateway"
	"svlink/internal/link"
	"svlink/internal/logging"
)

// Content types.
const (
	ContentTypeCSV = "text/csv; charset=utf-8-sig"
	ContentTypeZip = "application/zip"
	ContentTypeSVG = "image/svg+xml"
)

// Delivery describes one delivered artifact.
type Delivery struct {
	Name        string
	Location    string
	ContentType string
	Size        int
}

// Adapter exports result sets through the gateway into a sink.
type Adapter struct {
	gw   gateway.Gateway
	sink Sink
}

// New creates an export adapter.
func New(gw gateway.Gateway, sink Sink) *Adapter {
	return &Adapter{gw: gw, sink: sink}
}

// CSV exports results of a pipeline as CSV.
func (a *Adapter) CSV(ctx context.Context, kind link.Kind, results []link.BatchResult) (Delivery, error) {
	if len(results) == 0 {
		return Delivery{}, link.ErrNothingToExport
	}
	return a.artifact(ctx, gateway.CSVExport(kind), results)
}

// QRArchive exports a zip of QR codes for the successful generate results.
func (a *Adapter) QRArchive(ctx context.Context, results []link.BatchResult) (Delivery, error) {
	if len(results) == 0 {
		return Delivery{}, link.ErrNothingToExport
	}
	if len(link.Successes(results)) == 0 {
		return Delivery{}, link.ErrNoSuccessfulResults
	}
	return a.artifact(ctx, gateway.ExportQRArchive, results)
}

// ExportAll exports the CSV and, for generate results with at least one
// success, the QR archive concurrently.
func (a *Adapter) ExportAll(ctx context.Context, kind link.Kind, results []link.BatchResult) ([]Delivery, error) {
	if len(results) == 0 {
		return nil, link.ErrNothingToExport
	}
	withQR := kind == link.KindGenerate && len(link.Successes(results)) > 0

	out := make([]Delivery, 1, 2)
	if withQR {
		out = out[:2]
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := a.CSV(gctx, kind, results)
		out[0] = d
		return err
	})
	if withQR {
		g.Go(func() error {
			d, err := a.QRArchive(gctx, results)
			out[1] = d
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Gallery writes one SVG per successful generate result.
func (a *Adapter) Gallery(ctx context.Context, results []link.BatchResult) ([]Delivery, error) {
	if len(link.Successes(results)) == 0 {
		return nil, link.ErrNoSuccessfulResults
	}
	codes, err := a.gw.QRCodes(ctx, results)
	if err != nil {
		logging.ExportError("qr gallery failed: %v", err)
		return nil, err
	}

	out := make([]Delivery, 0, len(codes))
	for _, code := range codes {
		name := safeName(code.Filename, fmt.Sprintf("qrcode_%03d.svg", code.Index))
		f := File{Name: name, ContentType: ContentTypeSVG, Data: []byte(code.SVG)}
		loc, err := a.sink.Deliver(ctx, f)
		if err != nil {
			return out, err
		}
		out = append(out, Delivery{Name: name, Location: loc, ContentType: f.ContentType, Size: len(f.Data)})
	}
	logging.Export("qr gallery: wrote %d svg files", len(out))
	return out, nil
}

func (a *Adapter) artifact(ctx context.Context, kind gateway.ExportKind, results []link.BatchResult) (Delivery, error) {
	timer := logging.StartTimer(logging.CategoryExport, "export "+kind.String())
	defer timer.Stop()

	art, err := a.gw.Export(ctx, kind, results)
	if err != nil {
		logging.ExportError("export %s failed: %v", kind, err)
		return Delivery{}, err
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(art.Content))
	if err != nil {
		return Delivery{}, &link.ApplicationError{Op: "export " + kind.String(), Message: "content is not valid base64"}
	}

	f := File{
		Name:        safeName(art.Filename, kind.FallbackFilename()),
		ContentType: contentType(kind, art.MimeType),
		Data:        data,
	}
	loc, err := a.sink.Deliver(ctx, f)
	if err != nil {
		logging.ExportError("deliver %s failed: %v", f.Name, err)
		return Delivery{}, err
	}
	logging.Export("exported %s (%d bytes) to %s", f.Name, len(data), loc)
	return Delivery{Name: f.Name, Location: loc, ContentType: f.ContentType, Size: len(data)}, nil
}

// safeName reduces a backend supplied filename to a plain base name.
func safeName(name, fallback string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = filepath.Base(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return fallback
	}
	return name
}

func contentType(kind gateway.ExportKind, mimetype string) string {
	if kind == gateway.ExportQRArchive {
		if mimetype != "" {
			return mimetype
		}
		return ContentTypeZip
	}
	return ContentTypeCSV
}
