package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/noteforge-labs/noteforge-cli/internal/logger"
)

// noteSuffix marks generated output files so the watcher never
// re-processes its own writes.
const noteSuffix = ".notes.md"

// settleDelay gives the writing process time to finish before the
// dropped file is read.
const settleDelay = 500 * time.Millisecond

// watchedExtensions are the upload formats the watcher reacts to.
var watchedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".pptx": true,
	".txt":  true,
	".md":   true,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and generate notes for new documents",
	Long: `Watch an inbox directory. Every supported document dropped into it is
parsed and a study note is written next to it as <name>.notes.md.

The watcher uses your remembered preferences (mode, language) when
logged in. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if fileParser == nil || newGenerator == nil {
		return errors.New("generator not configured")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", dir)

	// A file drop usually fires Create followed by several Writes;
	// tracking the last handled time collapses them into one run.
	handled := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nStopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !shouldHandle(event.Name, handled) {
				continue
			}
			handled[event.Name] = time.Now()
			watchGenerate(ctx, cmd, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// shouldHandle filters out unsupported files, generated notes, and
// duplicate events for a file handled moments ago.
func shouldHandle(path string, handled map[string]time.Time) bool {
	if strings.HasSuffix(path, noteSuffix) {
		return false
	}
	if !watchedExtensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	if last, ok := handled[path]; ok && time.Since(last) < 2*time.Second {
		return false
	}
	return true
}

// watchGenerate runs one parse-and-generate cycle for a dropped file.
// Failures are reported and swallowed; the watch loop keeps running.
func watchGenerate(ctx context.Context, cmd *cobra.Command, path string) {
	time.Sleep(settleDelay)

	name := filepath.Base(path)
	cmd.Printf("Processing %s...\n", name)

	user := currentUser(ctx)
	req, err := buildGenerateRequest(cmd, user)
	if err != nil {
		cmd.PrintErrf("Warning: %s: %v\n", name, err)
		return
	}

	parsed := fileParser.ParseAll(ctx, []string{path})
	for i := range parsed {
		if parsed[i].Err != nil {
			cmd.PrintErrf("Warning: skipping %s: %v\n", parsed[i].Name, parsed[i].Err)
			return
		}
		req.Texts = append(req.Texts, parsed[i].Text)
	}

	generator, closeGenerator, err := newGenerator(ctx)
	if err != nil {
		cmd.PrintErrf("Warning: %v\n", err)
		return
	}
	defer closeGenerator()

	result, err := generator.Generate(ctx, req)
	if err != nil {
		cmd.PrintErrf("Warning: generation failed for %s: %v\n", name, err)
		return
	}

	output := outputPathFor(path)
	if err := os.WriteFile(output, []byte(result.Text), 0600); err != nil {
		cmd.PrintErrf("Warning: could not write %s: %v\n", output, err)
		return
	}

	cmd.Printf("Wrote %s (%d tokens, $%.6f)\n",
		filepath.Base(output), result.Usage.TotalTokens, result.Usage.EstimatedCost)
}

// outputPathFor derives the generated note's path from the source file.
func outputPathFor(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + noteSuffix
}
