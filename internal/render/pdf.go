// Package render produces the PDF artifact for an essay and hands it to the
// blob store. The essay service treats it as an optional collaborator.
package render

import (
	"bytes"
	"context"

	"github.com/jung-kurt/gofpdf"

	"github.com/redalab/redalab-backend/internal/essay"
	"github.com/redalab/redalab-backend/internal/storage"
)

type PDF struct {
	blobs storage.BlobStore
}

func NewPDF(blobs storage.BlobStore) *PDF { return &PDF{blobs: blobs} }

// EssayPDF renders the essay's title and body to a single-column A4 document
// and stores it, returning the blob key.
func (p *PDF) EssayPDF(ctx context.Context, e essay.Essay) (string, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 16)
	doc.MultiCell(0, 10, e.Title, "", "L", false)
	doc.Ln(4)
	doc.SetFont("Helvetica", "", 12)
	doc.MultiCell(0, 6, e.Body, "", "L", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return "", err
	}
	return p.blobs.Put("essays/"+e.ID+".pdf", &buf)
}
