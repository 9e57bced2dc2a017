// Package store persists generated articles to an append-only master CSV and
// a pretty-printed text file per source.
package store

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/notsoquietly/articlestudio/internal/generate"
)

// MasterCSVName is the single tabular store all saves append to.
const MasterCSVName = "all_articles.csv"

var csvHeader = []string{
	"id",
	"source_title",
	"source_url",
	"video_url",
	"source_type",
	"article_title",
	"article_body",
}

// Source identifies what the articles were generated from.
type Source struct {
	Title string
	URL   string
	Type  string // "video" or "article"
}

// SaveResult reports where a save landed.
type SaveResult struct {
	ArticlesFile string `json:"articles_file"`
	Count        int    `json:"count"`
	SourceURL    string `json:"source_url"`
	SourceTitle  string `json:"source_title"`
	SourceType   string `json:"source_type"`
}

// Store writes under Dir, creating it on first save.
type Store struct {
	Dir string
}

// Save writes the per-source text file and appends one CSV row per article.
// The CSV header is written only when the file does not exist yet.
func (s *Store) Save(src Source, articles []generate.Article) (*SaveResult, error) {
	if len(articles) == 0 {
		return nil, fmt.Errorf("nothing to save for %s", src.URL)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	textPath := filepath.Join(s.Dir, SanitizeFilename(src.Title)+".txt")
	if err := os.WriteFile(textPath, []byte(renderText(articles)), 0o644); err != nil {
		return nil, fmt.Errorf("write articles file: %w", err)
	}

	if err := s.appendCSV(src, articles); err != nil {
		return nil, err
	}
	return &SaveResult{
		ArticlesFile: textPath,
		Count:        len(articles),
		SourceURL:    src.URL,
		SourceTitle:  src.Title,
		SourceType:   src.Type,
	}, nil
}

func (s *Store) appendCSV(src Source, articles []generate.Article) error {
	path := filepath.Join(s.Dir, MasterCSVName)
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open master csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	id := RowID(src.URL)
	for _, a := range articles {
		row := []string{id, src.Title, src.URL, src.URL, src.Type, a.Title, a.Body}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func renderText(articles []generate.Article) string {
	var b strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&b, "**%s**\n\n%s\n\n", a.Title, a.Body)
		if i < len(articles)-1 {
			b.WriteString("---\n\n")
		}
	}
	return b.String()
}

// SourceSummary is one processed source with its article count, as listed by
// the HTTP API.
type SourceSummary struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	SourceType   string `json:"source_type"`
	ArticleCount int    `json:"article_count"`
}

// ListSources scans the master CSV and groups rows by source title.
func (s *Store) ListSources() ([]SourceSummary, error) {
	path := filepath.Join(s.Dir, MasterCSVName)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open master csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read master csv: %w", err)
	}

	var order []string
	byTitle := map[string]*SourceSummary{}
	for i, rec := range records {
		if i == 0 || len(rec) < 6 {
			continue // header or malformed row
		}
		title := rec[1]
		sum, ok := byTitle[title]
		if !ok {
			sum = &SourceSummary{Title: title, URL: rec[2], SourceType: rec[4]}
			byTitle[title] = sum
			order = append(order, title)
		}
		sum.ArticleCount++
	}
	out := make([]SourceSummary, 0, len(order))
	for _, title := range order {
		out = append(out, *byTitle[title])
	}
	return out, nil
}

// RowID is a stable short identifier derived from the source URL.
func RowID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}

var unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFilename makes a source title safe to use as a file name.
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "-")
	name = strings.Join(strings.Fields(name), " ")
	if len(name) > 180 {
		name = name[:180]
	}
	return name
}
