package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Browse your saved notes",
	Long: `List, display and rate the notes saved to your account.

Requires a logged-in session; guest-generated notes are not persisted.`,
	RunE: runNotesList,
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notes, newest first",
	RunE:  runNotesList,
}

var notesShowCmd = &cobra.Command{
	Use:   "show [note-id]",
	Short: "Print a note's content",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotesShow,
}

var notesFeedbackCmd = &cobra.Command{
	Use:   "feedback [note-id] [text]",
	Short: "Record feedback on a note",
	Args:  cobra.ExactArgs(2),
	RunE:  runNotesFeedback,
}

func init() {
	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesShowCmd)
	notesCmd.AddCommand(notesFeedbackCmd)
	rootCmd.AddCommand(notesCmd)
}

// requireUser resolves the current session or fails with a login hint.
func requireUser(ctx context.Context) (*domain.User, error) {
	user := currentUser(ctx)
	if user == nil {
		return nil, errors.New("not logged in; run 'noteforge auth login <username>' first")
	}
	return user, nil
}

func runNotesList(cmd *cobra.Command, _ []string) error {
	if noteStore == nil {
		return errors.New("note store not configured")
	}

	ctx := context.Background()
	user, err := requireUser(ctx)
	if err != nil {
		return err
	}

	notes, err := noteStore.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}

	if len(notes) == 0 {
		cmd.Println("No saved notes yet.")
		return nil
	}

	for i := range notes {
		cmd.Printf("%6d  %s  %s\n",
			notes[i].ID,
			notes[i].CreatedAt.Format("2006-01-02 15:04"),
			notes[i].Title)
		if notes[i].Feedback != "" {
			cmd.Printf("        feedback: %s\n", truncate(notes[i].Feedback, 60))
		}
	}
	return nil
}

func runNotesShow(cmd *cobra.Command, args []string) error {
	if noteStore == nil {
		return errors.New("note store not configured")
	}

	noteID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid note id %q", args[0])
	}

	ctx := context.Background()
	user, err := requireUser(ctx)
	if err != nil {
		return err
	}

	note, err := noteStore.Get(ctx, user.ID, noteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("note %d not found", noteID)
		}
		return fmt.Errorf("failed to load note: %w", err)
	}

	cmd.Printf("# %s\n\n", note.Title)
	cmd.Println(note.Content)
	return nil
}

func runNotesFeedback(cmd *cobra.Command, args []string) error {
	if noteStore == nil {
		return errors.New("note store not configured")
	}

	noteID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid note id %q", args[0])
	}
	feedback := strings.TrimSpace(args[1])
	if feedback == "" {
		return errors.New("feedback text is empty")
	}

	ctx := context.Background()
	user, err := requireUser(ctx)
	if err != nil {
		return err
	}

	if err := noteStore.SetFeedback(ctx, user.ID, noteID, feedback); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("note %d not found", noteID)
		}
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	cmd.Printf("Feedback recorded for note %d\n", noteID)
	return nil
}

// truncate truncates a string to the specified length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
