package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driving"
)

var generateCmd = &cobra.Command{
	Use:   "generate [files...]",
	Short: "Generate a study note from course documents",
	Long: `Parse one or more course documents and synthesize a single study note.

Supported formats: PDF, DOCX, PPTX, TXT and Markdown. Files are merged
into one note; a file that cannot be parsed is skipped with a warning.

Logged-in users get their last-used mode and language as defaults, and
the generated note is saved to their account.

Examples:
  noteforge generate lecture.pdf
  noteforge generate week1.pptx week2.pptx --mode exam
  noteforge generate notes.docx --bilingual --lang zh
  noteforge generate script.txt --mode custom --instruction "focus on definitions"
  noteforge generate reading.pdf -o reading-notes.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

// durationPrecision keeps the printed wall-clock time readable.
const durationPrecision = 10 * time.Millisecond

// Flags for generate.
var (
	generateMode        string
	generateInstruction string
	generateBilingual   bool
	generateLang        string
	generateOutput      string
)

func init() {
	generateCmd.Flags().StringVar(
		&generateMode, "mode", "", "Note style: detailed, exam or custom (default detailed)")
	generateCmd.Flags().StringVar(
		&generateInstruction, "instruction", "", "Custom instruction (with --mode custom)")
	generateCmd.Flags().BoolVar(
		&generateBilingual, "bilingual", false, "Append a translation of the note")
	generateCmd.Flags().StringVar(
		&generateLang, "lang", "", "Translation language: zh or en (with --bilingual)")
	generateCmd.Flags().StringVarP(
		&generateOutput, "output", "o", "", "Write the note to a file instead of stdout")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if fileParser == nil || newGenerator == nil {
		return errors.New("generator not configured")
	}

	ctx := context.Background()
	user := currentUser(ctx)

	req, err := buildGenerateRequest(cmd, user)
	if err != nil {
		return err
	}

	parsed := fileParser.ParseAll(ctx, args)
	for i := range parsed {
		if parsed[i].Err != nil {
			cmd.PrintErrf("Warning: skipping %s: %v\n", parsed[i].Name, parsed[i].Err)
			continue
		}
		req.Texts = append(req.Texts, parsed[i].Text)
	}

	generator, closeGenerator, err := newGenerator(ctx)
	if err != nil {
		return err
	}
	defer closeGenerator()

	result, err := generator.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrNoMaterial) {
			return errors.New("no readable material in the uploaded files")
		}
		return err
	}

	if generateOutput != "" {
		if err := os.WriteFile(generateOutput, []byte(result.Text), 0600); err != nil {
			return fmt.Errorf("write note: %w", err)
		}
		cmd.Printf("Note written to %s\n", generateOutput)
	} else {
		cmd.Println(result.Text)
	}

	printUsageSummary(cmd, result)
	rememberPreferences(ctx, cmd, user)

	return nil
}

// buildGenerateRequest resolves flags against remembered preferences:
// an explicit flag always wins, a remembered value fills the gap.
func buildGenerateRequest(cmd *cobra.Command, user *domain.User) (driving.GenerateRequest, error) {
	var prefs map[string]any
	if user != nil && preferenceMemory != nil {
		prefs = preferenceMemory.Load(context.Background(), user.ID)
	}

	mode := generateMode
	if mode == "" {
		if remembered, ok := prefs["mode"].(string); ok {
			mode = remembered
		}
	}

	bilingual := generateBilingual
	if !cmd.Flags().Changed("bilingual") {
		if remembered, ok := prefs["bilingual"].(bool); ok {
			bilingual = remembered
		}
	}

	lang := generateLang
	if lang == "" {
		if remembered, ok := prefs["lang"].(string); ok {
			lang = remembered
		}
	}

	parsedMode, err := domain.ParseMode(mode, generateInstruction)
	if err != nil {
		return driving.GenerateRequest{}, err
	}

	return driving.GenerateRequest{
		Mode:       parsedMode,
		Bilingual:  bilingual,
		TargetLang: lang,
		User:       user,
	}, nil
}

// rememberPreferences persists explicitly-passed flags so the next run
// can default to them. Best effort; failures only log.
func rememberPreferences(ctx context.Context, cmd *cobra.Command, user *domain.User) {
	if user == nil || preferenceMemory == nil {
		return
	}

	prefs := make(map[string]any)
	if cmd.Flags().Changed("mode") {
		prefs["mode"] = generateMode
	}
	if cmd.Flags().Changed("bilingual") {
		prefs["bilingual"] = generateBilingual
	}
	if cmd.Flags().Changed("lang") {
		prefs["lang"] = generateLang
	}
	if len(prefs) == 0 {
		return
	}

	if err := preferenceMemory.Save(ctx, user.ID, prefs); err != nil {
		cmd.PrintErrf("Warning: could not remember preferences: %v\n", err)
	}
}

func printUsageSummary(cmd *cobra.Command, result *driving.GenerateResult) {
	cmd.PrintErrln()
	cmd.PrintErrf("Subject: %s  Language: %s\n", result.Subject, result.Language)
	cmd.PrintErrf("Tokens: %d (prompt %d, completion %d)\n",
		result.Usage.TotalTokens, result.Usage.PromptTokens, result.Usage.CompletionTokens)
	cmd.PrintErrf("Estimated cost: $%.6f\n", result.Usage.EstimatedCost)
	cmd.PrintErrf("Duration: %s\n", result.Duration.Round(durationPrecision))
	if result.NoteID != 0 {
		cmd.PrintErrf("Saved as note %d\n", result.NoteID)
	}
}
