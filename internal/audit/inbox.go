// Package audit implements the auditor side: it receives finished cleaning
// reports over HTTP, files them on disk, and serves a browsable inbox.
package audit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Meta is the header block lifted from a stored report. Fields are kept as
// strings; a malformed report still lists, it just shows blanks.
type Meta struct {
	RoomID     string `json:"roomId"`
	CleanerID  string `json:"cleanerId"`
	TotalScore string `json:"totalScore"`
	FinishedAt string `json:"finishedAt"`
}

// Entry is one stored report as shown in the inbox listing.
type Entry struct {
	Filename   string `json:"filename"`
	ReceivedAt string `json:"receivedAt"`
	Meta
}

// Inbox stores received reports as text files in a single directory.
type Inbox struct {
	dir string

	// Now is swappable in tests, it names reports that arrive without a
	// usable filename.
	Now func() time.Time
}

func NewInbox(dir string) (*Inbox, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audit: create inbox dir: %w", err)
	}
	return &Inbox{dir: dir, Now: time.Now}, nil
}

// Save files the report and returns the name it was stored under. Senders
// choose the filename, so it is reduced to a safe character set first; a
// missing or non-.txt name gets a timestamped one instead.
func (in *Inbox) Save(filename, content string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || !strings.HasSuffix(filename, ".txt") {
		filename = "cleaning_report_" + in.Now().Format("20060102_150405") + ".txt"
	}
	filename = unsafeChars.ReplaceAllString(filename, "_")
	if err := os.WriteFile(filepath.Join(in.dir, filename), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("audit: store %s: %w", filename, err)
	}
	return filename, nil
}

// List returns every stored report, newest filename first.
func (in *Inbox) List() ([]Entry, error) {
	names, err := os.ReadDir(in.dir)
	if err != nil {
		return nil, fmt.Errorf("audit: list inbox: %w", err)
	}
	entries := make([]Entry, 0, len(names))
	for _, de := range names {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".txt") {
			continue
		}
		e := Entry{Filename: de.Name()}
		if info, err := de.Info(); err == nil {
			e.ReceivedAt = info.ModTime().Format("2006-01-02 15:04:05")
		}
		if meta, err := in.meta(de.Name()); err == nil {
			e.Meta = meta
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Filename > entries[j].Filename
	})
	return entries, nil
}

// Read returns the stored report text.
func (in *Inbox) Read(filename string) (string, error) {
	path, err := in.path(filename)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (in *Inbox) Path(filename string) (string, error) {
	return in.path(filename)
}

func (in *Inbox) path(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." ||
		filename != filepath.Base(filename) || unsafeChars.MatchString(filename) {
		return "", fmt.Errorf("audit: invalid filename %q", filename)
	}
	return filepath.Join(in.dir, filename), nil
}

func (in *Inbox) meta(filename string) (Meta, error) {
	path, err := in.path(filename)
	if err != nil {
		return Meta{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Meta{}, err
	}
	defer f.Close()

	var m Meta
	sc := bufio.NewScanner(f)
	// Only the header block matters, stop scanning early.
	for i := 0; i < 40 && sc.Scan(); i++ {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "roomId:"):
			m.RoomID = strings.TrimSpace(strings.TrimPrefix(line, "roomId:"))
		case strings.HasPrefix(line, "cleanerId:"):
			m.CleanerID = strings.TrimSpace(strings.TrimPrefix(line, "cleanerId:"))
		case strings.HasPrefix(line, "totalScore:"):
			m.TotalScore = strings.TrimSpace(strings.TrimPrefix(line, "totalScore:"))
		case strings.HasPrefix(line, "finishedAt:"):
			m.FinishedAt = strings.TrimSpace(strings.TrimPrefix(line, "finishedAt:"))
		}
	}
	return m, sc.Err()
}
