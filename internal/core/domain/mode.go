package domain

import (
	"fmt"
	"strings"
)

// modeKind discriminates the closed set of note-generation styles.
type modeKind int

const (
	modeDetailed modeKind = iota
	modeExam
	modeCustom
)

// Mode selects the instruction template for the synthesis stage.
// The zero value is the detailed mode. Custom carries the user's
// free-text instruction; the other variants carry no payload, so an
// invalid mode is unrepresentable.
type Mode struct {
	kind        modeKind
	instruction string
}

// Detailed is the verbose explanation-plus-example style.
func Detailed() Mode { return Mode{kind: modeDetailed} }

// Exam is the short Q&A condensed style.
func Exam() Mode { return Mode{kind: modeExam} }

// Custom embeds the user-supplied instruction verbatim.
func Custom(instruction string) Mode {
	return Mode{kind: modeCustom, instruction: instruction}
}

// ParseMode maps a mode name to a Mode. The instruction argument is
// only consulted for "custom".
func ParseMode(name, instruction string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "detailed":
		return Detailed(), nil
	case "exam":
		return Exam(), nil
	case "custom":
		return Custom(instruction), nil
	default:
		return Mode{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, name)
	}
}

// String returns the mode name ("detailed", "exam", "custom").
func (m Mode) String() string {
	switch m.kind {
	case modeExam:
		return "exam"
	case modeCustom:
		return "custom"
	default:
		return "detailed"
	}
}

// Instruction returns the custom instruction and whether this is the
// custom mode. Non-custom modes carry no instruction.
func (m Mode) Instruction() (string, bool) {
	return m.instruction, m.kind == modeCustom
}

// IsExam reports whether this is the exam mode.
func (m Mode) IsExam() bool { return m.kind == modeExam }
