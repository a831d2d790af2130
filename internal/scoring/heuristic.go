package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

// ProviderHeuristic marks length and pace approximations used when no AI grader answers.
const ProviderHeuristic = "heuristic"

// LengthRange is the expected word count for a free-text task.
type LengthRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r LengthRange) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

type lengthRule struct {
	Range     LengthRange
	penalties []lengthPenalty
}

type lengthPenalty struct {
	below, above int // zero disables the side
	points       int
}

var summaryRules = map[models.QuestionType]lengthRule{
	models.SummarizeWrittenText: {
		Range: LengthRange{Min: 5, Max: 75},
		penalties: []lengthPenalty{
			{below: 10, points: 5},
			{above: 100, points: 5},
		},
	},
	models.WriteEssay: {
		Range: LengthRange{Min: 150, Max: 450},
		penalties: []lengthPenalty{
			{below: 120, points: 8},
			{above: 520, points: 8},
		},
	},
	models.SummarizeSpokenText: {
		Range: LengthRange{Min: 50, Max: 70},
		penalties: []lengthPenalty{
			{below: 30, points: 10},
			{above: 90, points: 10},
			{below: 10, points: 20},
		},
	},
	models.WriteFromDictation: {
		Range: LengthRange{Min: 1, Max: 100},
	},
}

// ExpectedLength returns the word-count window for a free-text task.
func ExpectedLength(t models.QuestionType) (LengthRange, bool) {
	rule, ok := summaryRules[t]
	return rule.Range, ok
}

// ScoreSummaryLength is the placeholder score for summaries and essays: 75 inside the
// expected length, 55 outside, minus penalties for extreme lengths.
func ScoreSummaryLength(t models.QuestionType, text string) *models.ScoringResult {
	rule, ok := summaryRules[t]
	if !ok {
		rule = lengthRule{Range: LengthRange{Min: 0, Max: math.MaxInt32}}
	}
	wc := CountWords(text)
	within := rule.Range.Contains(wc)

	total := 55
	if within {
		total = 75
	}
	for _, p := range rule.penalties {
		if p.below > 0 && wc < p.below {
			total -= p.points
		}
		if p.above > 0 && wc > p.above {
			total -= p.points
		}
	}
	score := ClampTo90(float64(total))

	rationale := fmt.Sprintf("%d words; expected %d-%d.", wc, rule.Range.Min, rule.Range.Max)
	if !within {
		rationale += " Length is outside the expected range."
	}
	return &models.ScoringResult{
		Overall:   score,
		Subscores: map[string]int{"form": score},
		Rationale: rationale,
		Metadata: map[string]any{
			"provider":       ProviderHeuristic,
			"task":           strings.ToUpper(string(t)),
			"wordCount":      wc,
			"sentenceCount":  SentenceCount(text),
			"withinRange":    within,
			"length":         rule.Range,
			"uniqueWordRate": math.Round(UniqueWordRatio(text)*1000) / 1000,
			"charCount":      len([]rune(text)),
		},
	}
}

// ===== SPEAKING =====

var fillerWords = map[string]struct{}{
	"um": {}, "uh": {}, "er": {}, "ah": {}, "like": {}, "basically": {},
}

var speakingRubrics = map[models.QuestionType]string{
	models.ReadAloud:                "Content: Word accuracy and completeness. Pronunciation: Clarity and stress. Fluency: Smooth delivery.",
	models.RepeatSentence:           "Content: Sentence accuracy. Pronunciation: Native-like sounds. Fluency: Natural rhythm.",
	models.DescribeImage:            "Content: Key features covered. Organization: Logical flow. Fluency: Smooth delivery.",
	models.RetellLecture:            "Content: Main points captured. Coherence: Logical structure. Fluency: Natural speech.",
	models.AnswerShortQuestion:      "Content: Correct answer. Pronunciation: Clear delivery.",
	models.SummarizeGroupDiscussion: "Content: Key points summarized. Organization: Logical flow. Fluency: Smooth delivery.",
	models.RespondToSituation:       "Content: Appropriate response. Pronunciation: Clear delivery. Fluency: Natural speech.",
}

// SpeakingRubric returns the rubric text shown with a speaking score.
func SpeakingRubric(t models.QuestionType) string {
	if r, ok := speakingRubrics[t]; ok {
		return r
	}
	return "Standard PTE Academic speaking rubric."
}

// ScoreSpeakingHeuristic approximates content, pronunciation and fluency from a transcript
// and its duration. reference is the prompt text for read-aloud and repeat-sentence items.
func ScoreSpeakingHeuristic(t models.QuestionType, transcript, reference string, durationMs int64) *models.ScoringResult {
	words := strings.Fields(strings.ToLower(transcript))
	meta := map[string]any{
		"provider": ProviderHeuristic,
		"task":     "SPEAKING_" + strings.ToUpper(string(t)),
		"rubric":   SpeakingRubric(t),
	}
	if len(words) == 0 {
		meta["wordsPerMinute"] = 0
		meta["fillerRate"] = 0
		return &models.ScoringResult{
			Overall:   0,
			Subscores: map[string]int{"content": 0, "pronunciation": 0, "fluency": 0},
			Rationale: "No speech detected.",
			Metadata:  meta,
		}
	}

	wpm := 0
	if durationMs > 0 {
		wpm = int(roundHalfUp(float64(len(words)) / (float64(durationMs) / 60000)))
	}

	var content, pronunciation, fluency int
	switch t {
	case models.ReadAloud:
		content = promptCoverage(reference, words)
		switch {
		case wpm >= 120 && wpm <= 160:
			fluency = 90
		case wpm >= 100 && wpm <= 180:
			fluency = 75
		case wpm >= 80:
			fluency = 60
		default:
			fluency = 50
		}
		pronunciation = ClampTo90(float64(content+fluency) / 2)
	case models.RepeatSentence:
		content = ClampTo90(wordOverlap(strings.Fields(strings.ToLower(reference)), words) * MaxScore)
		fluency = 60
		if wpm >= 100 && wpm <= 180 {
			fluency = 80
		}
		pronunciation = ClampTo90(float64(content+fluency) / 2)
	case models.AnswerShortQuestion:
		content = 30
		if len(strings.TrimSpace(transcript)) > 3 {
			content = MaxScore
		}
		pronunciation, fluency = 70, 70
	case models.DescribeImage, models.RetellLecture, models.SummarizeGroupDiscussion, models.RespondToSituation:
		switch n := len(words); {
		case n >= 60:
			content = 85
		case n >= 40:
			content = 70
		case n >= 25:
			content = 55
		default:
			content = 40
		}
		switch {
		case wpm >= 100 && wpm <= 160:
			fluency = 85
		case wpm >= 80 && wpm <= 180:
			fluency = 70
		default:
			fluency = 50
		}
		pronunciation = ClampTo90(float64(content+fluency) / 2)
	default:
		content, pronunciation, fluency = 50, 50, 50
	}

	subscores := map[string]int{"content": content, "pronunciation": pronunciation, "fluency": fluency}
	overall := WeightedOverall(subscores, nil)
	meta["wordsPerMinute"] = wpm
	meta["fillerRate"] = fillerRate(words)
	return &models.ScoringResult{
		Overall:   overall,
		Subscores: subscores,
		Rationale: speakingFeedback(overall, wpm),
		Metadata:  meta,
	}
}

func promptCoverage(reference string, words []string) int {
	prompt := strings.Fields(strings.ToLower(reference))
	inPrompt := make(map[string]struct{}, len(prompt))
	for _, w := range prompt {
		inPrompt[w] = struct{}{}
	}
	matched := 0
	for _, w := range words {
		if _, ok := inPrompt[w]; ok {
			matched++
		}
	}
	return ClampTo90(float64(matched) / float64(max(len(prompt), 1)) * MaxScore)
}

func wordOverlap(ref, hyp []string) float64 {
	if len(ref) == 0 || len(hyp) == 0 {
		return 0
	}
	inRef := make(map[string]struct{}, len(ref))
	for _, w := range ref {
		inRef[w] = struct{}{}
	}
	matches := 0
	for _, w := range hyp {
		if _, ok := inRef[w]; ok {
			matches++
		}
	}
	return float64(matches) / float64(max(len(ref), len(hyp)))
}

// fillerRate is the percentage of filler words in the transcript.
func fillerRate(words []string) int {
	n := 0
	for _, w := range words {
		if _, ok := fillerWords[w]; ok {
			n++
		}
	}
	return CalculatePercentage(n, len(words))
}

func speakingFeedback(score, wpm int) string {
	var msg string
	switch {
	case score >= 80:
		msg = "Excellent performance! Your response demonstrated strong command of spoken English."
	case score >= 60:
		msg = "Good attempt. Continue practicing to improve fluency and pronunciation."
	case score >= 40:
		msg = "Fair performance. Focus on speaking clearly and maintaining a steady pace."
	default:
		msg = "More practice needed. Work on reading aloud daily to build confidence."
	}
	if wpm < 80 {
		msg += " Your speaking pace was slow, aim for 120-150 words per minute."
	} else if wpm > 180 {
		msg += " Try to slow down slightly for clearer pronunciation."
	}
	return msg
}
