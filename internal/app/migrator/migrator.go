// Package migrator runs the two-pass Logseq to Obsidian migration: pass 1
// builds a corpus-wide identifier database without touching any file, pass 2
// rewrites every file in memory against that database and commits each result
// atomically.
package migrator

import (
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/noswind/logseq-to-obsidian/internal/domain/logseq"
	"github.com/noswind/logseq-to-obsidian/internal/infra/vaultfs"
)

// Options configures a migration run.
type Options struct {
	Dir      string // root of the Logseq graph
	NoBackup bool   // skip the timestamped backup folder
	LogDir   string // where the run log lives, defaults to Dir
}

// Validate validates the run options.
func (o *Options) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Dir, validation.Required),
	)
}

// IdentifierDB maps a block identifier to the sanitized display text a
// reference to it resolves to. Built exactly once during pass 1; read-only
// for the rest of the run. When the same identifier is defined more than
// once, the last file in lexicographic path order wins.
type IdentifierDB map[string]string

// Stats summarizes one run.
type Stats struct {
	Files     int
	Migrated  int
	Unchanged int
	Skipped   int
	Failed    int
	BackupDir string
}

type Migrator struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Migrator {
	return &Migrator{opts: opts, logger: logger}
}

// Run executes the full migration. It returns a non-nil error only for setup
// failures (bad options, discovery, backup); per-file problems are logged,
// counted, and never abort the run.
func (m *Migrator) Run() (Stats, error) {
	if err := m.opts.Validate(); err != nil {
		return Stats{}, fmt.Errorf("invalid options: %w", err)
	}

	files, err := vaultfs.FindMarkdownFiles(m.opts.Dir)
	if err != nil {
		return Stats{}, fmt.Errorf("discover markdown files: %w", err)
	}
	stats := Stats{Files: len(files)}
	if len(files) == 0 {
		m.logger.Warn("no markdown files found", slog.String("dir", m.opts.Dir))
		return stats, nil
	}
	m.logger.Info("found markdown files", slog.Int("count", len(files)), slog.String("dir", m.opts.Dir))

	if !m.opts.NoBackup {
		backupDir, err := vaultfs.CreateBackup(m.opts.Dir, files)
		if err != nil {
			return stats, fmt.Errorf("create backup: %w", err)
		}
		stats.BackupDir = backupDir
		m.logger.Info("backup created", slog.String("dir", backupDir))
	}

	db := m.buildIdentifierDB(files)
	m.logger.Info("identifier database built", slog.Int("entries", len(db)))

	m.rewriteFiles(files, db, &stats)
	return stats, nil
}

// buildIdentifierDB is pass 1. It never writes: every file is read, parsed,
// and each identified block's display text inserted into the database. Files
// arrive lexicographically sorted, which pins the duplicate tie-break to a
// platform-independent order.
func (m *Migrator) buildIdentifierDB(files []string) IdentifierDB {
	db := IdentifierDB{}
	bar := newPassProgressBar(len(files), "pass 1: indexing blocks")
	defer bar.Close()

	for _, path := range files {
		raw, ok := m.readPage(path)
		if ok {
			page, err := logseq.ParsePage(raw)
			if err != nil {
				m.logger.Warn("cannot parse file",
					slog.String("file", path), slog.String("error", err.Error()))
			} else {
				m.indexBlocks(db, page, path)
			}
		}
		bar.Advance()
	}
	bar.Finish()
	return db
}

func (m *Migrator) indexBlocks(db IdentifierDB, page logseq.Page, path string) {
	for _, b := range page.Blocks {
		id, hasID := b.Identifier()
		if !hasID {
			continue
		}
		text := b.DisplayText()
		if text == "" {
			continue
		}
		if _, dup := db[id]; dup {
			m.logger.Warn("duplicate block identifier, keeping the last definition",
				slog.String("id", id), slog.String("file", path))
		}
		db[id] = text
	}
}

// rewriteFiles is pass 2. Each file's replacement text is computed fully in
// memory and only then committed, so a failure anywhere leaves the original
// untouched.
func (m *Migrator) rewriteFiles(files []string, db IdentifierDB, stats *Stats) {
	bar := newPassProgressBar(len(files), "pass 2: rewriting files")
	defer bar.Close()

	for _, path := range files {
		m.rewriteFile(path, db, stats)
		bar.Advance()
	}
	bar.Finish()
}

func (m *Migrator) rewriteFile(path string, db IdentifierDB, stats *Stats) {
	raw, ok := m.readPage(path)
	if !ok {
		stats.Skipped++
		return
	}
	out, err := transformPage(raw, db, path, m.logger)
	if err != nil {
		m.logger.Warn("skipping file",
			slog.String("file", path), slog.String("error", err.Error()))
		stats.Skipped++
		return
	}
	if out == raw {
		stats.Unchanged++
		return
	}
	if err := vaultfs.WriteFileAtomic(path, []byte(out)); err != nil {
		m.logger.Error("write failed",
			slog.String("file", path), slog.String("error", err.Error()))
		stats.Failed++
		return
	}
	stats.Migrated++
}

func (m *Migrator) readPage(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		m.logger.Warn("cannot read file",
			slog.String("file", path), slog.String("error", err.Error()))
		return "", false
	}
	if !utf8.Valid(data) {
		m.logger.Warn("skipping file with invalid UTF-8", slog.String("file", path))
		return "", false
	}
	return string(data), true
}
