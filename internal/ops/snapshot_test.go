package ops

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	reportsDir := filepath.Join(t.TempDir(), "reports")

	files := map[string]string{
		"data/session.json": `{"rooms":{"101":{"elapsedSeconds":42,"tasks":{}}}}`,
		"reports/cleaning_report_abcdef012345.txt": "CLEANING_REPORT_V1\nroomId: 101\n",
		"reports/cleaning_report_0123456789ab.txt": "CLEANING_REPORT_V1\nroomId: 101\n",
	}
	for rel, content := range files {
		var base string
		if filepath.Dir(rel) == "data" {
			base = filepath.Dir(dataDir)
		} else {
			base = filepath.Dir(reportsDir)
		}
		path := filepath.Join(base, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	archive := filepath.Join(t.TempDir(), "snap.tar.gz")
	err := Snapshot(archive, map[string]string{"data": dataDir, "reports": reportsDir})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	restoreDir := filepath.Join(t.TempDir(), "restore")
	if err := Restore(archive, restoreDir); err != nil {
		t.Fatalf("restore: %v", err)
	}

	got := map[string]string{}
	err = filepath.WalkDir(restoreDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(restoreDir, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	if err != nil {
		t.Fatalf("walk restore dir: %v", err)
	}

	if !reflect.DeepEqual(files, got) {
		t.Fatalf("restored files mismatch:\nwant=%v\ngot=%v", files, got)
	}
}

func TestSnapshotSkipsMissingSource(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "session.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	archive := filepath.Join(t.TempDir(), "snap.tar.gz")
	err := Snapshot(archive, map[string]string{
		"data":    dataDir,
		"reports": filepath.Join(t.TempDir(), "does-not-exist"),
	})
	if err != nil {
		t.Fatalf("snapshot with missing source: %v", err)
	}
	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("archive missing: %v", err)
	}
}

func TestRestoreRejectsPathTraversal(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bad.tar.gz")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	if err := tw.WriteHeader(&tar.Header{
		Name:     "../evil.txt",
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     4,
	}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := tw.Write([]byte("boom")); err != nil {
		t.Fatalf("write body: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	if err := Restore(archive, t.TempDir()); err == nil {
		t.Fatal("restore should refuse traversal entries")
	}
}
