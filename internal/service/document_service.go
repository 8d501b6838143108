package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/model"
)

// Sentinel errors for document uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrTooManyFiles        = errors.New("too many files")
)

// Accepted source document types, keyed by MIME type.
var allowedMIMETypes = map[string][]string{
	"application/pdf": {".pdf"},
	"image/png":       {".png"},
	"image/jpeg":      {".jpg", ".jpeg"},
	"image/webp":      {".webp"},
}

// DocumentService turns uploaded files into provider documents.
type DocumentService struct {
	cfg *config.Config
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(cfg *config.Config) *DocumentService {
	return &DocumentService{cfg: cfg}
}

// ReadUploads validates and reads every uploaded file. An empty list is
// returned as-is so the state machine can report the missing documents.
func (s *DocumentService) ReadUploads(headers []*multipart.FileHeader) ([]model.Document, error) {
	if len(headers) > s.cfg.MaxDocuments {
		return nil, fmt.Errorf("%w: %d (max: %d)", ErrTooManyFiles, len(headers), s.cfg.MaxDocuments)
	}

	docs := make([]model.Document, 0, len(headers))
	for _, h := range headers {
		d, err := s.read(h)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *DocumentService) read(header *multipart.FileHeader) (model.Document, error) {
	if header.Size > s.cfg.MaxUploadBytes {
		return model.Document{}, fmt.Errorf("%w: %s is %d bytes (max: %d)",
			ErrFileTooLarge, header.Filename, header.Size, s.cfg.MaxUploadBytes)
	}

	f, err := header.Open()
	if err != nil {
		return model.Document{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return model.Document{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return model.Document{}, fmt.Errorf("%w: %s", ErrFileTooLarge, header.Filename)
	}

	mimeType, err := detectMIMEType(header, data)
	if err != nil {
		return model.Document{}, err
	}

	return model.Document{Name: filepath.Base(header.Filename), MIMEType: mimeType, Data: data}, nil
}

// detectMIMEType sniffs the content; the declared Content-Type is ignored.
// The extension must agree with the sniffed type.
func detectMIMEType(header *multipart.FileHeader, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))

	sniffed := mimetype.Detect(data)
	for mt, exts := range allowedMIMETypes {
		if sniffed.Is(mt) && slices.Contains(exts, ext) {
			return mt, nil
		}
	}

	return "", fmt.Errorf("%w: %s (allowed: %s)",
		ErrUnsupportedFileType, header.Filename, strings.Join(AllowedExtensions(), ", "))
}

// AllowedExtensions lists the accepted file extensions.
func AllowedExtensions() []string {
	var out []string
	for _, exts := range allowedMIMETypes {
		out = append(out, exts...)
	}
	sort.Strings(out)
	return out
}
