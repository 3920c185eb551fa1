// Package file provides a JSON file implementation of driven.Catalog.
//
// The catalog is a JSON array of video entries as produced by the channel
// scraper:
//
//	[{"video_id": "abc", "channel": "Beastyqt", "title": "...",
//	  "upload_date": "20240115", "duration_seconds": 900,
//	  "language_hint": "en", "approved": true, "ingested": false}]
//
// Fields the catalog does not know about are preserved on rewrite.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
)

// DefaultFileName is the catalog file name inside the data directory.
const DefaultFileName = "video_candidates.json"

// Ensure Catalog implements the interfaces.
var (
	_ driven.Catalog        = (*Catalog)(nil)
	_ driven.CatalogWatcher = (*Catalog)(nil)
)

// entry is the on-disk shape of one catalog record.
type entry struct {
	VideoID         string  `json:"video_id"`
	Channel         string  `json:"channel"`
	Title           string  `json:"title"`
	UploadDate      string  `json:"upload_date"`
	DurationSeconds float64 `json:"duration_seconds"`
	LanguageHint    string  `json:"language_hint"`
	Approved        bool    `json:"approved"`
	Ingested        bool    `json:"ingested"`
}

func (e entry) video() domain.Video {
	return domain.Video{
		ID:              e.VideoID,
		Channel:         e.Channel,
		Title:           e.Title,
		UploadDate:      e.UploadDate,
		LanguageHint:    e.LanguageHint,
		DurationSeconds: int(e.DurationSeconds),
		Approved:        e.Approved,
		Ingested:        e.Ingested,
	}
}

// Catalog reads and updates a JSON catalog file.
type Catalog struct {
	mu         sync.Mutex
	path       string
	lastDigest [sha256.Size]byte
}

// New creates a catalog backed by the file at path. The file is read on
// every call, so external edits are picked up without reopening.
func New(path string) *Catalog {
	return &Catalog{path: path}
}

// Path returns the catalog file path.
func (c *Catalog) Path() string {
	return c.path
}

// All returns every entry in file order.
func (c *Catalog) All(_ context.Context) ([]domain.Video, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, _, err := c.read()
	if err != nil {
		return nil, err
	}
	videos := make([]domain.Video, 0, len(entries))
	for _, e := range entries {
		videos = append(videos, e.video())
	}
	return videos, nil
}

// Approved returns entries marked for ingestion, in file order.
func (c *Catalog) Approved(ctx context.Context) ([]domain.Video, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	approved := make([]domain.Video, 0, len(all))
	for _, v := range all {
		if v.Approved && v.ID != "" {
			approved = append(approved, v)
		}
	}
	return approved, nil
}

// MarkIngested sets "ingested": true on the given entries and rewrites the
// file atomically. Unknown IDs are ignored.
func (c *Catalog) MarkIngested(_ context.Context, documentIDs []string) error {
	if len(documentIDs) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		wanted[id] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, raw, err := c.read()
	if err != nil {
		return err
	}

	changed := false
	for i, e := range entries {
		if !wanted[e.VideoID] || e.Ingested {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw[i], &fields); err != nil {
			return fmt.Errorf("decoding catalog entry %s: %w", e.VideoID, err)
		}
		fields["ingested"] = json.RawMessage("true")
		updated, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("encoding catalog entry %s: %w", e.VideoID, err)
		}
		raw[i] = updated
		changed = true
	}
	if !changed {
		return nil
	}

	return c.write(raw)
}

// LatestUploadDates returns the newest upload date per channel.
// Entries without a date are ignored.
func (c *Catalog) LatestUploadDates(ctx context.Context) (map[string]string, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	latest := make(map[string]string)
	for _, v := range all {
		if v.UploadDate == "" {
			continue
		}
		if cur, ok := latest[v.Channel]; !ok || v.UploadDate > cur {
			latest[v.Channel] = v.UploadDate
		}
	}
	return latest, nil
}

// read loads the file, returning typed entries and their raw JSON.
func (c *Catalog) read() ([]entry, []json.RawMessage, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, c.path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading catalog: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: catalog %s is not a JSON array: %w", domain.ErrInvalidInput, c.path, err)
	}

	entries := make([]entry, len(raw))
	for i, r := range raw {
		if err := json.Unmarshal(r, &entries[i]); err != nil {
			return nil, nil, fmt.Errorf("%w: catalog entry %d: %w", domain.ErrInvalidInput, i, err)
		}
	}
	return entries, raw, nil
}

// write replaces the file via a temp file and rename.
func (c *Catalog) write(raw []json.RawMessage) error {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("creating temp catalog: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing catalog: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("replacing catalog: %w", err)
	}

	c.lastDigest = sha256.Sum256(data)
	return nil
}

// isOwnWrite reports whether the file content is exactly what this
// catalog last wrote.
func (c *Catalog) isOwnWrite() bool {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return sha256.Sum256(data) == c.lastDigest
}
