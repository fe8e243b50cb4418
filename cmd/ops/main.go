package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cleannav/internal/ops"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "backup":
		if err := cmdBackup(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "backup failed:", err)
			os.Exit(1)
		}
	case "restore":
		if err := cmdRestore(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "restore failed:", err)
			os.Exit(1)
		}
	case "drill":
		if err := cmdDrill(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "drill failed:", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(2)
	}
}

func cmdBackup(args []string) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to the session data directory")
	reportsDir := fs.String("reports-dir", "reports", "path to the reports directory")
	out := fs.String("out", "", "output archive path (.tar.gz)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		ts := time.Now().UTC().Format("20060102T150405Z")
		*out = filepath.Join("backups", "cleannav-"+ts+".tar.gz")
	}

	if err := ops.Snapshot(*out, map[string]string{
		"data":    *dataDir,
		"reports": *reportsDir,
	}); err != nil {
		return err
	}
	fmt.Println(*out)
	return nil
}

func cmdRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	archive := fs.String("archive", "", "input snapshot archive (.tar.gz)")
	target := fs.String("target-dir", "restored", "restore target directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *archive == "" {
		return fmt.Errorf("archive is required")
	}
	return ops.Restore(*archive, *target)
}

func cmdDrill(args []string) error {
	fs := flag.NewFlagSet("drill", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to the session data directory")
	reportsDir := fs.String("reports-dir", "reports", "path to the reports directory")
	workDir := fs.String("work-dir", os.TempDir(), "temporary workspace for drill artifacts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(*workDir, 0o755); err != nil {
		return err
	}
	ts := time.Now().UTC().Format("20060102T150405Z")
	archive := filepath.Join(*workDir, "cleannav-drill-"+ts+".tar.gz")
	restoreDir := filepath.Join(*workDir, "cleannav-drill-restore-"+ts)

	sources := map[string]string{"data": *dataDir, "reports": *reportsDir}
	if err := ops.Snapshot(archive, sources); err != nil {
		return err
	}
	if err := ops.Restore(archive, restoreDir); err != nil {
		return err
	}

	srcDigest, err := sourcesDigest(sources)
	if err != nil {
		return err
	}
	restoreDigest, err := sourcesDigest(map[string]string{
		"data":    filepath.Join(restoreDir, "data"),
		"reports": filepath.Join(restoreDir, "reports"),
	})
	if err != nil {
		return err
	}
	if srcDigest != restoreDigest {
		return fmt.Errorf("digest mismatch after restore: src=%s restored=%s", srcDigest, restoreDigest)
	}

	fmt.Println("backup:", archive)
	fmt.Println("restored:", restoreDir)
	fmt.Println("digest:", srcDigest)
	return nil
}

func sourcesDigest(sources map[string]string) (string, error) {
	prefixes := make([]string, 0, len(sources))
	for p := range sources {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	h := sha256.New()
	for _, prefix := range prefixes {
		root := filepath.Clean(sources[prefix])
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}

		var entries []string
		if err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			entries = append(entries, filepath.ToSlash(rel))
			return nil
		}); err != nil {
			return "", err
		}
		sort.Strings(entries)

		for _, rel := range entries {
			_, _ = io.WriteString(h, prefix+"/"+rel+"\n")
			b, err := os.ReadFile(filepath.Join(root, rel))
			if err != nil {
				return "", err
			}
			if _, err := h.Write(b); err != nil {
				return "", err
			}
			_, _ = io.WriteString(h, "\n")
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func printUsage() {
	fmt.Println("usage:")
	fmt.Println("  cleannav-ops backup  --data-dir data --reports-dir reports --out backups/snap.tar.gz")
	fmt.Println("  cleannav-ops restore --archive backups/snap.tar.gz --target-dir restored")
	fmt.Println("  cleannav-ops drill   --data-dir data --reports-dir reports --work-dir /tmp")
}
