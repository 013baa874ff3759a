package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gamerec-quiz-service/internal/domain"
)

func TestLoadCatalogFromDisk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "steam.json", `{
		"questions": [
			{"id": "q1", "prompt": "What pace do you enjoy?", "options": [
				{"label": "Fast and loud", "tags": ["action"]},
				{"label": "Slow and thoughtful", "tags": ["puzzle"]}
			]}
		],
		"games": [
			{"id": "game-a", "name": "Arena Blasters", "appId": 730, "tags": ["action", "multiplayer"]}
		]
	}`)

	loader := NewCatalogLoader(dir)
	catalog, err := loader.LoadCatalog(context.Background(), "steam")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if catalog.ID != "steam" {
		t.Fatalf("expected id filled from filename, got %s", catalog.ID)
	}
	if len(catalog.Questions) != 1 || len(catalog.Games) != 1 {
		t.Fatalf("unexpected catalog shape: %+v", catalog)
	}
	if catalog.Games[0].AppID != 730 {
		t.Fatalf("expected appId carried through, got %d", catalog.Games[0].AppID)
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	loader := NewCatalogLoader(t.TempDir())
	if _, err := loader.LoadCatalog(context.Background(), "nope"); !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestLoadCatalogRejectsEmptyQuestions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{"questions": [], "games": []}`)

	loader := NewCatalogLoader(dir)
	if _, err := loader.LoadCatalog(context.Background(), "bad"); err == nil {
		t.Fatalf("expected validation error for empty questions")
	}
}

func TestLoadCatalogRejectsOptionlessQuestion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{"questions": [{"id": "q1", "prompt": "?", "options": []}]}`)

	loader := NewCatalogLoader(dir)
	if _, err := loader.LoadCatalog(context.Background(), "bad"); err == nil {
		t.Fatalf("expected validation error for optionless question")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
