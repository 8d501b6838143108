package service

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stemsi/quizgen/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
)

type upload struct {
	name        string
	contentType string
	data        []byte
}

// fileHeaders builds real multipart headers the way gin's form binding does.
func fileHeaders(t *testing.T, files ...upload) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"]
}

func testDocuments() *DocumentService {
	return NewDocumentService(&config.Config{MaxDocuments: 2, MaxUploadBytes: 1024})
}

func TestReadUploads(t *testing.T) {
	s := testDocuments()

	docs, err := s.ReadUploads(fileHeaders(t,
		upload{name: "lesson.pdf", contentType: "application/pdf", data: pdfBytes},
		upload{name: "diagram.png", contentType: "application/octet-stream", data: pngBytes},
	))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "lesson.pdf", docs[0].Name)
	assert.Equal(t, "application/pdf", docs[0].MIMEType)
	assert.Equal(t, pdfBytes, docs[0].Data)

	// The declared type is wrong; the content decides.
	assert.Equal(t, "image/png", docs[1].MIMEType)
}

func TestReadUploads_Empty(t *testing.T) {
	docs, err := testDocuments().ReadUploads(nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReadUploads_Rejects(t *testing.T) {
	s := testDocuments()

	t.Run("too many files", func(t *testing.T) {
		_, err := s.ReadUploads(fileHeaders(t,
			upload{name: "a.pdf", contentType: "application/pdf", data: pdfBytes},
			upload{name: "b.pdf", contentType: "application/pdf", data: pdfBytes},
			upload{name: "c.pdf", contentType: "application/pdf", data: pdfBytes},
		))
		assert.ErrorIs(t, err, ErrTooManyFiles)
	})

	t.Run("too large", func(t *testing.T) {
		big := append(append([]byte{}, pdfBytes...), bytes.Repeat([]byte("A"), 2048)...)
		_, err := s.ReadUploads(fileHeaders(t,
			upload{name: "big.pdf", contentType: "application/pdf", data: big},
		))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := s.ReadUploads(fileHeaders(t,
			upload{name: "notes.txt", contentType: "text/plain", data: []byte("hello")},
		))
		assert.ErrorIs(t, err, ErrUnsupportedFileType)
	})

	t.Run("declared type is not trusted", func(t *testing.T) {
		_, err := s.ReadUploads(fileHeaders(t,
			upload{name: "notes.pdf", contentType: "application/pdf", data: []byte("just some plain text notes")},
		))
		assert.ErrorIs(t, err, ErrUnsupportedFileType)
	})

	t.Run("extension does not match content", func(t *testing.T) {
		_, err := s.ReadUploads(fileHeaders(t,
			upload{name: "lesson.pdf", contentType: "text/plain", data: pngBytes},
		))
		assert.ErrorIs(t, err, ErrUnsupportedFileType)
	})
}

func TestAllowedExtensions(t *testing.T) {
	assert.Equal(t, []string{".jpeg", ".jpg", ".pdf", ".png", ".webp"}, AllowedExtensions())
}
