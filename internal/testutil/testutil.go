// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code
// duplication across test files.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/lantern-ml/evalbench/internal/annotation"
	"github.com/lantern-ml/evalbench/internal/db"
	"github.com/lantern-ml/evalbench/internal/detect"
	"github.com/lantern-ml/evalbench/internal/geom"
)

// OpenTestDB opens a fresh sqlite database in a temp directory and
// applies the initial migration, so test schema cannot drift from the
// migration files. The database is closed when the test finishes.
func OpenTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	schemaSQL, err := os.ReadFile(filepath.Join(repoRoot(t), "migrations", "0001_init.up.sql"))
	if err != nil {
		t.Fatalf("failed to read migration: %v", err)
	}
	if _, err := database.Exec(string(schemaSQL)); err != nil {
		t.Fatalf("failed to apply migration: %v", err)
	}

	return database
}

// repoRoot resolves the repository root from this file's location, so
// helpers work regardless of which package directory the test runs in.
func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to resolve caller path")
	}
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// Truth builds a ground-truth annotation on a 640x480 image.
func Truth(imageID, class string, box geom.Box) annotation.Annotation {
	return annotation.Annotation{
		ImageID:   imageID,
		Class:     class,
		ImageSize: geom.Size{W: 640, H: 480},
		Box:       box,
	}
}

// Det builds a detection fixture.
func Det(imageID, class string, score float64, box geom.Box) detect.Detection {
	return detect.Detection{
		ImageID: imageID,
		Class:   class,
		Score:   score,
		Box:     box,
	}
}
