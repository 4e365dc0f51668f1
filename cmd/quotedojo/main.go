package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"quotedojo/internal/app"
	"quotedojo/internal/game"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "quotedojo"})
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg, envErr := app.LoadConfig()
	root := &cobra.Command{
		Use:           "quotedojo",
		Short:         "Reveal hidden quotations one letter at a time",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if envErr != nil {
				return envErr
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}
	bindFlags(root.PersistentFlags(), &cfg)
	root.AddCommand(newLevelsCmd(&cfg))
	return root
}

func bindFlags(fs *pflag.FlagSet, cfg *app.Config) {
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the progress database (default ~/.local/share/quotedojo)")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "quotation catalog (.yaml, or legacy .json); builtin when empty")
	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "append JSON logs to this file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.BoolVar(&cfg.Ephemeral, "ephemeral", cfg.Ephemeral, "keep progress in memory only")
	fs.BoolVar(&cfg.ASCIIOnly, "ascii", cfg.ASCIIOnly, "draw borders with ASCII characters")
	fs.StringVar(&cfg.UI.StyleVariant, "style", cfg.UI.StyleVariant, "color theme: dusk, paper or phosphor")
	fs.StringVar(&cfg.UI.MotionLevel, "motion", cfg.UI.MotionLevel, "animations: full, reduced or off")
	fs.BoolVar(&cfg.DebugLayout, "debug-layout", cfg.DebugLayout, "show terminal size in the header")
	_ = fs.MarkHidden("debug-layout")
}

func newLevelsCmd(cfg *app.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List levels with their lock and resume state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(*cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			statuses, unlock := a.Levels(cmd.Context())
			printLevels(cmd.OutOrStdout(), statuses, unlock.UnlockedLevel)
			if !cfg.Ephemeral {
				path := app.StorePath(*cfg)
				if info, err := os.Stat(path); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Progress: %s (%s, saved %s)\n", path, humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
				}
			}
			return nil
		},
	}
}

func printLevels(w io.Writer, statuses []game.LevelStatus, unlocked int) {
	open := 0
	for _, s := range statuses {
		status := "open"
		author := s.Author
		switch {
		case s.Locked:
			status = "locked"
			author = "???"
		case s.Resumable:
			status = "resume"
		}
		if !s.Locked {
			open++
		}
		fmt.Fprintf(w, "%5d  %-6s  %s\n", s.Index+1, status, author)
	}
	fmt.Fprintf(w, "\nUnlocked %s of %s levels.", humanize.Comma(int64(open)), humanize.Comma(int64(len(statuses))))
	if unlocked < len(statuses) {
		fmt.Fprintf(w, " The %s level is next to solve.", humanize.Ordinal(unlocked+1))
	}
	fmt.Fprintln(w)
}
