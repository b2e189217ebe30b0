// Package fetcher reads raw documents from http(s) URLs and local files.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Ensure Fetcher implements driven.Fetcher
var _ driven.Fetcher = (*Fetcher)(nil)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 50 << 20
	userAgent       = "finance-assist/1.0"
)

// ErrTooLarge indicates the document exceeds the configured size limit
var ErrTooLarge = errors.New("document exceeds size limit")

// extensionTypes covers formats the platform MIME table may not know
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".csv":      "text/csv",
	".htm":      "text/html",
	".html":     "text/html",
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Config configures a Fetcher.
type Config struct {
	Timeout    time.Duration
	MaxBytes   int64
	AllowFiles bool // permit file:// URLs and absolute paths
	HTTPClient *http.Client
}

// Fetcher implements driven.Fetcher over net/http and the local filesystem.
type Fetcher struct {
	client     *http.Client
	maxBytes   int64
	allowFiles bool
}

// New creates a Fetcher
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		client:     client,
		maxBytes:   cfg.MaxBytes,
		allowFiles: cfg.AllowFiles,
	}
}

// Fetch reads locator and detects its MIME type
func (f *Fetcher) Fetch(ctx context.Context, locator string) (*domain.RawDocument, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, fmt.Errorf("%w: empty locator", domain.ErrInvalidInput)
	}

	if filepath.IsAbs(locator) {
		return f.fetchFile(ctx, locator, locator)
	}

	u, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", domain.ErrInvalidInput, locator, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("%w: %q has no host", domain.ErrInvalidInput, locator)
		}
		return f.fetchHTTP(ctx, locator)
	case "file":
		return f.fetchFile(ctx, locator, u.Path)
	default:
		return nil, fmt.Errorf("%w: unsupported locator %q", domain.ErrInvalidInput, locator)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, locator string) (*domain.RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", locator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: status %d", locator, resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("get %s: %w (%d bytes)", locator, ErrTooLarge, resp.ContentLength)
	}

	content, err := f.readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", locator, err)
	}

	return &domain.RawDocument{
		Locator:  locator,
		MimeType: detectType(resp.Header.Get("Content-Type"), resp.Request.URL.Path, content),
		Content:  content,
		Metadata: map[string]string{domain.MetaSource: locator},
	}, nil
}

func (f *Fetcher) fetchFile(ctx context.Context, locator, p string) (*domain.RawDocument, error) {
	if !f.allowFiles {
		return nil, fmt.Errorf("%w: local files are disabled: %q", domain.ErrInvalidInput, locator)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Clean(p))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", locator, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", locator, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %q is a directory", domain.ErrInvalidInput, locator)
	}

	content, err := f.readLimited(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", locator, err)
	}

	return &domain.RawDocument{
		Locator:  locator,
		MimeType: detectType("", p, content),
		Content:  content,
		Metadata: map[string]string{domain.MetaSource: locator},
	}, nil
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	content, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return content, nil
}

// detectType prefers a specific transport header, then the file extension,
// then content sniffing.
func detectType(header, name string, content []byte) string {
	if mt, _, err := mime.ParseMediaType(header); err == nil && !isGeneric(mt) {
		return mt
	}

	ext := strings.ToLower(path.Ext(name))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil && mt != "" {
		return mt
	}

	mt, _, _ := mime.ParseMediaType(http.DetectContentType(content))
	if mt == "application/zip" {
		return sniffOOXML(content)
	}
	return mt
}

func isGeneric(mt string) bool {
	return mt == "" || mt == "application/octet-stream" || mt == "binary/octet-stream"
}

// sniffOOXML tells DOCX and XLSX packages apart by their part names.
func sniffOOXML(content []byte) string {
	switch {
	case strings.Contains(string(content), "word/"):
		return extensionTypes[".docx"]
	case strings.Contains(string(content), "xl/"):
		return extensionTypes[".xlsx"]
	default:
		return "application/zip"
	}
}
