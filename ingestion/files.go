package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pdf "github.com/dslipak/pdf"
)

// DocumentFormat enumerates supported document payload formats.
type DocumentFormat string

const (
	FormatUnknown DocumentFormat = ""
	FormatText    DocumentFormat = "text"
	FormatPDF     DocumentFormat = "pdf"
)

// DetectFormat infers a document format from the path's extension.
func DetectFormat(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return FormatText
	case ".pdf":
		return FormatPDF
	default:
		return FormatUnknown
	}
}

// ReadDocument loads a file and returns its plain-text content, extracting
// text from PDFs.
func ReadDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	switch DetectFormat(path) {
	case FormatText:
		return string(data), nil
	case FormatPDF:
		return extractPDFText(data)
	default:
		return "", fmt.Errorf("unsupported document format: %s", filepath.Ext(path))
	}
}

// IngestFile runs the pipeline over a single document file.
func (s *Service) IngestFile(ctx context.Context, path string) (Result, error) {
	content, err := ReadDocument(path)
	if err != nil {
		return Result{}, err
	}
	return s.Ingest(ctx, content)
}

// IngestDirectory walks a directory and ingests every supported document,
// logging per-file failures and continuing with the rest.
func (s *Service) IngestDirectory(ctx context.Context, dir string) (Result, error) {
	if _, err := os.Stat(dir); err != nil {
		return Result{}, fmt.Errorf("data directory: %w", err)
	}

	entries := make([]string, 0)
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if DetectFormat(path) != FormatUnknown {
			entries = append(entries, path)
		}
		return nil
	}); err != nil {
		return Result{}, fmt.Errorf("walk data directory: %w", err)
	}

	if len(entries) == 0 {
		s.logger.Printf("no supported documents found in %s", dir)
		return Result{}, nil
	}

	var total Result
	for _, path := range entries {
		result, err := s.IngestFile(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			s.logger.Printf("ingest failed for %s: %v", path, err)
			continue
		}
		s.logger.Printf("ingested %s (%d stored, %d failed)", path, result.Stored, result.Failed)
		total.Chunks += result.Chunks
		total.Stored += result.Stored
		total.Failed += result.Failed
	}

	return total, nil
}

func extractPDFText(data []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return buf.String(), nil
}
