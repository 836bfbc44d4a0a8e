package out

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	catalog "pathway/internal/modules/catalog/domain"
	"pathway/internal/modules/journey/domain"
	journeyout "pathway/internal/modules/journey/port/out"
	"pathway/internal/platform/markdown"
	"pathway/internal/platform/slug"
)

const (
	indexFile        = "index.md"
	indexStartMarker = "<!-- pathway:exports -->"
	indexEndMarker   = "<!-- /pathway:exports -->"
)

// MarkdownExporter renders a journey as a markdown note with YAML
// frontmatter, filed by date under the export dir. An index.md at the export
// root carries a managed block listing every note, newest first.
type MarkdownExporter struct {
	exportDir string
}

func NewMarkdownExporter(stateDir string) journeyout.Exporter {
	return &MarkdownExporter{exportDir: filepath.Join(stateDir, "exports")}
}

func (e *MarkdownExporter) Export(_ context.Context, entry domain.JournalEntry, title string) (string, error) {
	date := entry.CreatedAt
	dir := filepath.Join(e.exportDir, date.Format("2006"), date.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.md", date.Format("02-150405"), slug.Make(title)))

	meta := map[string]any{
		"entry_id":   entry.ID,
		"title":      title,
		"created_at": entry.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		"completed":  entry.Completed,
	}

	body := strings.Builder{}
	body.WriteString(fmt.Sprintf("# %s\n", title))
	for _, step := range catalog.Steps() {
		if step.Key == "" {
			continue
		}
		response, ok := entry.Responses[step.Key]
		if !ok || strings.TrimSpace(response) == "" {
			continue
		}
		body.WriteString(fmt.Sprintf("\n## %s\n\n> %s\n\n%s\n", step.Title, step.Prompt, response))
	}

	rendered, err := markdown.RenderFrontmatter(meta, body.String())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write journey note: %w", err)
	}
	// The note is already on disk; a stale index is not worth failing over.
	if err := e.updateIndex(); err != nil {
		log.Printf("journey: update export index: %v", err)
	}
	return path, nil
}

// updateIndex rewrites the managed block in index.md from the notes on disk,
// leaving anything the user wrote around the block alone.
func (e *MarkdownExporter) updateIndex() error {
	var notes []string
	err := filepath.WalkDir(e.exportDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") || d.Name() == indexFile {
			return nil
		}
		rel, err := filepath.Rel(e.exportDir, path)
		if err != nil {
			return err
		}
		notes = append(notes, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return err
	}
	// Paths embed the timestamp, so a reverse path sort is newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(notes)))

	lines := make([]string, 0, len(notes))
	for _, rel := range notes {
		title := rel
		if raw, err := os.ReadFile(filepath.Join(e.exportDir, rel)); err == nil {
			if meta, _, err := markdown.SplitFrontmatter(string(raw)); err == nil {
				if t, ok := meta["title"].(string); ok && t != "" {
					title = t
				}
			}
		}
		lines = append(lines, fmt.Sprintf("- [%s](%s)", title, rel))
	}

	indexPath := filepath.Join(e.exportDir, indexFile)
	body := "# Exported journeys\n"
	if raw, err := os.ReadFile(indexPath); err == nil {
		body = string(raw)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read export index: %w", err)
	}
	next := markdown.ReplaceManagedBlock(body, indexStartMarker, indexEndMarker, strings.Join(lines, "\n"))
	if err := os.WriteFile(indexPath, []byte(next), 0o644); err != nil {
		return fmt.Errorf("write export index: %w", err)
	}
	return nil
}
