package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bft-labs/chronicler/internal/adapters/fs"
	"github.com/bft-labs/chronicler/internal/domain"
	"github.com/bft-labs/chronicler/pkg/chronicler"
	"github.com/bft-labs/chronicler/pkg/log"
)

func newTailCommand(c *cli) *cobra.Command {
	var (
		severity string
		follow   bool
		fromEnd  bool
	)

	cmd := &cobra.Command{
		Use:   "tail [FILE]",
		Short: "Turn each line of a file or stdin into a record",
		Long: `Each line becomes one record. A leading level word (FATAL, ERROR,
WARN, WARNING, INFO, optionally in brackets or followed by a colon) sets
the severity; other lines use --severity.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fallback, ok := domain.ParseSeverity(severity)
			if !ok {
				return fmt.Errorf("unknown severity %q", severity)
			}
			if follow && len(args) == 0 {
				return errors.New("--follow requires a FILE")
			}

			return c.run(cmd.Context(), func(ctx context.Context, client *chronicler.Client) error {
				emit := func(line string) {
					if strings.TrimSpace(line) == "" {
						return
					}
					if err := client.Log(detectSeverity(line, fallback), chronicler.UserMessage{Message: line}); err != nil {
						c.logger.Warn("line dropped", log.Err(err))
					}
				}

				switch {
				case follow:
					err := fs.NewFollower(args[0], c.logger).Run(ctx, fromEnd, emit)
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				case len(args) == 1:
					f, err := os.Open(args[0])
					if err != nil {
						return err
					}
					defer f.Close()
					return scanLines(ctx, f, emit)
				default:
					return scanLines(ctx, cmd.InOrStdin(), emit)
				}
			})
		},
	}
	cmd.Flags().StringVar(&severity, "severity", "info", "severity for lines without a level word")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep reading as the file grows")
	cmd.Flags().BoolVar(&fromEnd, "from-end", false, "with --follow, skip lines already in the file")
	return cmd
}

func scanLines(ctx context.Context, r io.Reader, emit func(string)) error {
	s := bufio.NewScanner(r)
	for s.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		emit(s.Text())
	}
	return s.Err()
}

// detectSeverity reads a leading level word such as "ERROR", "[warn]" or
// "fatal:".
func detectSeverity(line string, fallback domain.Severity) domain.Severity {
	word := strings.TrimSpace(line)
	if i := strings.IndexAny(word, " \t"); i >= 0 {
		word = word[:i]
	}
	word = strings.Trim(word, "[]:")
	switch strings.ToUpper(word) {
	case "FATAL", "PANIC", "CRIT", "CRITICAL":
		return domain.SeverityFatal
	case "ERROR", "ERR":
		return domain.SeverityError
	case "WARN", "WARNING":
		return domain.SeverityWarning
	case "INFO", "DEBUG", "TRACE":
		return domain.SeverityInfo
	default:
		return fallback
	}
}
