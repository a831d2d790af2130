package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

// ProviderDeterministic marks results computed without an AI model.
const ProviderDeterministic = "deterministic"

const (
	TaskMCQSingle              = "READING_MCQ_SINGLE"
	TaskMCQMultiple            = "READING_MCQ_MULTIPLE"
	TaskFillInBlanks           = "READING_FILL_IN_BLANKS"
	TaskReorderParagraphs      = "READING_REORDER_PARAGRAPHS"
	TaskWriteFromDictation     = "LISTENING_WRITE_FROM_DICTATION"
	TaskHighlightIncorrectWord = "LISTENING_HIGHLIGHT_INCORRECT_WORDS"
)

// BlankMismatch records one wrong blank for review screens.
type BlankMismatch struct {
	Key      string `json:"key"`
	User     string `json:"user"`
	Expected string `json:"expected"`
}

func deterministicResult(task string, overall int, subscores map[string]int, rationale string, meta map[string]any) *models.ScoringResult {
	metadata := map[string]any{
		"provider": ProviderDeterministic,
		"task":     task,
	}
	for k, v := range meta {
		metadata[k] = v
	}
	return &models.ScoringResult{
		Overall:   overall,
		Subscores: subscores,
		Rationale: rationale,
		Metadata:  metadata,
	}
}

// ===== CHOICE TASKS =====

// ScoreMCQSingle awards 90 when the selection equals the key after normalization.
func ScoreMCQSingle(selected, correct string) *models.ScoringResult {
	if NormalizeAnswer(selected) == NormalizeAnswer(correct) {
		return deterministicResult(TaskMCQSingle, MaxScore,
			map[string]int{"correctness": MaxScore},
			"Selected option matches the correct answer.", nil)
	}
	return deterministicResult(TaskMCQSingle, 0,
		map[string]int{"correctness": 0},
		"Selected option does not match the correct answer.", nil)
}

// ScoreMCQMultiple scores (tp-fp)/|correct|, floored at 0. One wrong pick cancels one
// right pick.
func ScoreMCQMultiple(selected, correct []string) *models.ScoringResult {
	correctSet := normalizedSet(correct)
	tp, fp := 0, 0
	for item := range normalizedSet(selected) {
		if _, ok := correctSet[item]; ok {
			tp++
		} else {
			fp++
		}
	}

	fraction := penalizedFraction(tp, fp, len(correctSet))
	score := FractionTo90(fraction)
	return deterministicResult(TaskMCQMultiple, score,
		map[string]int{"correctness": score},
		fmt.Sprintf("%d correct, %d incorrect of %d expected options.", tp, fp, len(correctSet)),
		map[string]any{"tp": tp, "fp": fp, "correctCount": len(correctSet)})
}

// ScoreHighlightIncorrectWords applies the multiple-choice rule to word positions.
func ScoreHighlightIncorrectWords(selected, correct []int) *models.ScoringResult {
	correctSet := intSet(correct)
	tp, fp := 0, 0
	for idx := range intSet(selected) {
		if _, ok := correctSet[idx]; ok {
			tp++
		} else {
			fp++
		}
	}

	fraction := penalizedFraction(tp, fp, len(correctSet))
	score := FractionTo90(fraction)
	return deterministicResult(TaskHighlightIncorrectWord, score,
		map[string]int{"correctness": score},
		fmt.Sprintf("%d of %d incorrect words found, %d extra.", tp, len(correctSet), fp),
		map[string]any{"tp": tp, "fp": fp, "correctCount": len(correctSet)})
}

func penalizedFraction(tp, fp, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Max(0, float64(tp-fp)/float64(total))
}

// ===== BLANKS AND ORDER =====

// ScoreFillInBlanks compares every blank in the key to the learner's answer for that blank.
// Missing answers count as wrong.
func ScoreFillInBlanks(answers, key map[string]string) *models.ScoringResult {
	keys := blankKeys(key)
	matched := 0
	wrong := make([]BlankMismatch, 0)
	for _, k := range keys {
		user := answers[k]
		if NormalizeAnswer(user) == NormalizeAnswer(key[k]) {
			matched++
			continue
		}
		wrong = append(wrong, BlankMismatch{Key: k, User: user, Expected: key[k]})
	}

	var fraction float64
	if len(keys) > 0 {
		fraction = float64(matched) / float64(len(keys))
	}
	score := FractionTo90(fraction)
	return deterministicResult(TaskFillInBlanks, score,
		map[string]int{"correctness": score},
		fmt.Sprintf("%d/%d blanks correct.", matched, len(keys)),
		map[string]any{"matched": matched, "total": len(keys), "wrong": wrong})
}

// ScoreReorderParagraphs counts pairs whose relative order agrees with the key.
func ScoreReorderParagraphs(userOrder, correctOrder []string) *models.ScoringResult {
	n := len(correctOrder)
	if n == 0 || len(userOrder) != n {
		return deterministicResult(TaskReorderParagraphs, 0,
			map[string]int{"correctness": 0},
			"Submitted order does not contain the expected paragraphs.",
			map[string]any{"pairs": 0, "correctPairs": 0})
	}

	pos := make(map[string]int, n)
	for i, id := range userOrder {
		pos[NormalizeAnswer(id)] = i
	}
	for _, id := range correctOrder {
		if _, ok := pos[NormalizeAnswer(id)]; !ok || len(pos) != n {
			return deterministicResult(TaskReorderParagraphs, 0,
				map[string]int{"correctness": 0},
				"Submitted order does not contain the expected paragraphs.",
				map[string]any{"pairs": 0, "correctPairs": 0})
		}
	}

	if n == 1 {
		return deterministicResult(TaskReorderParagraphs, MaxScore,
			map[string]int{"correctness": MaxScore},
			"Single paragraph is trivially correct.",
			map[string]any{"pairs": 0, "correctPairs": 0})
	}

	pairs := n * (n - 1) / 2
	concordant := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if pos[NormalizeAnswer(correctOrder[i])] < pos[NormalizeAnswer(correctOrder[j])] {
				concordant++
			}
		}
	}

	score := FractionTo90(float64(concordant) / float64(pairs))
	return deterministicResult(TaskReorderParagraphs, score,
		map[string]int{"correctness": score},
		fmt.Sprintf("%d/%d paragraph pairs in the correct relative order.", concordant, pairs),
		map[string]any{"pairs": pairs, "correctPairs": concordant})
}

// ===== DICTATION =====

// ScoreWriteFromDictation scores the word error rate of the learner's text against the
// dictated sentence. An empty reference scores 0.
func ScoreWriteFromDictation(target, user string) *models.ScoringResult {
	ref := Tokenize(target)
	if len(ref) == 0 {
		return deterministicResult(TaskWriteFromDictation, 0,
			map[string]int{"wer": 0},
			"No reference text is available for this item.",
			map[string]any{"refLen": 0, "edits": 0})
	}

	edits := wordEditDistance(ref, Tokenize(user))
	wer := float64(edits) / float64(max(1, len(ref)))
	score := WerTo90(wer)
	return deterministicResult(TaskWriteFromDictation, score,
		map[string]int{"wer": score},
		fmt.Sprintf("%d word edit(s) against a %d-word reference (WER %.2f).", edits, len(ref), wer),
		map[string]any{"refLen": len(ref), "edits": edits, "wer": math.Round(wer*1000) / 1000})
}

// ===== F1 VARIANTS =====

// ScoreMCQMultipleF1 is the precision/recall blend used by the listening attempt route.
// It is kept for comparison and is not registered for any question type.
func ScoreMCQMultipleF1(selected, correct []string) *models.ScoringResult {
	correctSet := normalizedSet(correct)
	selectedSet := normalizedSet(selected)
	tp := 0
	for item := range selectedSet {
		if _, ok := correctSet[item]; ok {
			tp++
		}
	}
	pct := f1Percent(tp, len(correctSet), len(selectedSet))
	score := PercentTo90(float64(pct))
	return deterministicResult(TaskMCQMultiple, score,
		map[string]int{"correctness": score},
		fmt.Sprintf("F1 accuracy %d%%.", pct),
		map[string]any{"tp": tp, "correctCount": len(correctSet), "accuracy": pct, "formula": "f1"})
}

// ScoreHighlightIncorrectWordsF1 is the F1 rule on word positions. Not registered.
func ScoreHighlightIncorrectWordsF1(selected, correct []int) *models.ScoringResult {
	correctSet := intSet(correct)
	selectedSet := intSet(selected)
	tp := 0
	for idx := range selectedSet {
		if _, ok := correctSet[idx]; ok {
			tp++
		}
	}
	pct := f1Percent(tp, len(correctSet), len(selectedSet))
	score := PercentTo90(float64(pct))
	return deterministicResult(TaskHighlightIncorrectWord, score,
		map[string]int{"correctness": score},
		fmt.Sprintf("F1 accuracy %d%%.", pct),
		map[string]any{"tp": tp, "correctCount": len(correctSet), "accuracy": pct, "formula": "f1"})
}

func f1Percent(tp, keySize, selectedSize int) int {
	var precision, recall float64
	if keySize > 0 {
		precision = float64(tp) / float64(keySize)
	}
	if selectedSize > 0 {
		recall = float64(tp) / float64(selectedSize)
	}
	if precision+recall == 0 {
		return 0
	}
	return int(roundHalfUp(2 * precision * recall / (precision + recall) * 100))
}

// ===== HELPERS =====

func normalizedSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		n := NormalizeAnswer(it)
		if n == "" {
			continue
		}
		out[n] = struct{}{}
	}
	return out
}

func intSet(items []int) map[int]struct{} {
	out := make(map[int]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}

// blankKeys orders blank identifiers numerically when they are numbers.
func blankKeys(key map[string]string) []string {
	keys := sortedKeys(key)
	sort.SliceStable(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}
