package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/noswind/logseq-to-obsidian/internal/app/migrator"
	"github.com/noswind/logseq-to-obsidian/internal/infra/runlog"
)

var summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))

func run(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		dir = "."
	}

	opts := migrator.Options{
		Dir:      dir,
		NoBackup: cmd.Bool("no-backup"),
		LogDir:   cmd.String("log-dir"),
	}
	if opts.LogDir == "" {
		opts.LogDir = dir
	}

	logger, logFile, err := runlog.Open(opts.LogDir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	stats, err := migrator.New(opts, logger).Run()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println(summaryStyle.Render(fmt.Sprintf(
		"migrated %d of %d notes (%d unchanged, %d skipped, %d write failures)",
		stats.Migrated, stats.Files, stats.Unchanged, stats.Skipped, stats.Failed)))
	if stats.BackupDir != "" {
		fmt.Printf("backup: %s\n", stats.BackupDir)
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d files could not be written", stats.Failed)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "logseq-to-obsidian",
		Usage:     "Migrate a Logseq graph in place to Obsidian page links and YAML frontmatter",
		ArgsUsage: "[directory]",
		Action:    run,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "no-backup",
				Usage:   "Skip the timestamped backup folder (dangerous)",
				Sources: cli.EnvVars("LOGSEQ_TO_OBSIDIAN_NO_BACKUP"),
			},
			&cli.StringFlag{
				Name:        "log-dir",
				Usage:       "Directory for the run log file",
				DefaultText: "target directory",
				Sources:     cli.EnvVars("LOGSEQ_TO_OBSIDIAN_LOG_DIR"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("migration error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
