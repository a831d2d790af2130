package grader

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/pte-scoring-service/internal/scoring"
)

// BuildSystemPrompt describes the rubric and the reply format.
func BuildSystemPrompt(task Task) string {
	var sb strings.Builder
	sb.WriteString("You are a certified PTE Academic examiner.\n")

	if task.RationaleOnly() {
		sb.WriteString("The response below has already been scored automatically. Do not re-score it.\n")
		sb.WriteString("Explain briefly and concretely what the learner got wrong and how to improve.\n\n")
		sb.WriteString(`Reply with a single JSON object: {"rationale": "<two to four sentences>"}`)
		return sb.String()
	}

	fmt.Fprintf(&sb, "Score the learner's %s response for the task %q.\n\n", task.Section, task.QuestionType)
	sb.WriteString("RUBRIC DIMENSIONS (each 0-90):\n")
	for _, k := range scoring.RubricKeys[task.Section] {
		sb.WriteString("- " + k + "\n")
	}
	if task.MinWords > 0 || task.MaxWords > 0 {
		fmt.Fprintf(&sb, "\nThe expected length is %d to %d words. Penalise form when it is outside that range.\n", task.MinWords, task.MaxWords)
	}

	sb.WriteString("\nINSTRUCTIONS:\n")
	sb.WriteString("- Judge only what is written; do not reward length for its own sake.\n")
	sb.WriteString("- Use whole numbers.\n")
	sb.WriteString("- Omit a dimension you cannot judge rather than guessing 0.\n\n")
	sb.WriteString(`Reply with a single JSON object: {"overall": <0-90>, "subscores": {"<dimension>": <0-90>}, "rationale": "<two to four sentences>"}`)
	return sb.String()
}

// BuildUserPrompt carries the item and the learner's response.
func BuildUserPrompt(task Task) string {
	var sb strings.Builder
	if p := strings.TrimSpace(task.Prompt); p != "" {
		sb.WriteString("PROMPT:\n" + p + "\n\n")
	}
	if ref := strings.TrimSpace(task.Reference); ref != "" {
		sb.WriteString("REFERENCE:\n" + ref + "\n\n")
	}
	if task.RationaleOnly() {
		fmt.Fprintf(&sb, "AUTOMATIC SCORE: %d/90\n", task.Deterministic.Overall)
		if r := strings.TrimSpace(task.Deterministic.Rationale); r != "" {
			sb.WriteString("AUTOMATIC NOTES: " + r + "\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("LEARNER RESPONSE:\n" + strings.TrimSpace(task.Response))
	return sb.String()
}
