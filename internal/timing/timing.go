// Package timing holds the PTE timer catalogue, the server-side window validator and the
// client-side attempt state machine that renders countdowns against server timestamps.
// All timestamps are epoch milliseconds.
package timing

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

// DefaultAnswerMs is used when neither the caller nor the catalogue gives an answer window.
const DefaultAnswerMs int64 = 60_000

// Seconds converts seconds to milliseconds.
func Seconds(n int64) int64 { return n * 1000 }

// Minutes converts minutes to milliseconds.
func Minutes(n int64) int64 { return n * 60_000 }

// Format renders a duration as mm:ss, or hh:mm:ss from one hour up. Negative values render
// as 00:00.
func Format(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// EndAtFrom returns startAt+duration. Negative durations count as zero.
func EndAtFrom(startAt, durationMs int64) int64 {
	return startAt + max(0, durationMs)
}

// DriftMs is how far the client clock runs ahead of the server clock.
func DriftMs(serverNow, clientNow int64) int64 {
	return clientNow - serverNow
}

// ItemTiming is the catalogue entry for one task. Speaking and writing items have
// preparation and answer windows; reading and most listening items share a section window.
type ItemTiming struct {
	Section   models.Section      `json:"section"`
	Type      models.QuestionType `json:"type,omitempty"`
	PrepMs    int64               `json:"prepMs"`
	AnswerMs  int64               `json:"answerMs,omitempty"`
	SectionMs int64               `json:"sectionMs,omitempty"`
}

// WindowMs is the answering window a session for this item should grant.
func (it ItemTiming) WindowMs() int64 {
	if it.AnswerMs > 0 {
		return it.AnswerMs
	}
	if it.SectionMs > 0 {
		return it.SectionMs
	}
	return DefaultAnswerMs
}

type prepAnswer struct{ prep, answer int64 }

var speakingTimings = map[models.QuestionType]prepAnswer{
	models.ReadAloud:                {prep: Seconds(35), answer: Seconds(40)},
	models.RepeatSentence:           {prep: 0, answer: Seconds(15)},
	models.DescribeImage:            {prep: Seconds(25), answer: Seconds(40)},
	models.RetellLecture:            {prep: Seconds(10), answer: Seconds(40)},
	models.AnswerShortQuestion:      {prep: 0, answer: Seconds(10)},
	models.SummarizeGroupDiscussion: {prep: Seconds(20), answer: Seconds(60)},
	models.RespondToSituation:       {prep: Seconds(20), answer: Seconds(40)},
}

var writingTimings = map[models.QuestionType]int64{
	models.SummarizeWrittenText: Minutes(10),
	models.WriteEssay:           Minutes(20),
}

var (
	readingSectionMs      = Minutes(30)
	listeningSectionMs    = Minutes(43)
	summarizeSpokenTextMs = Minutes(10)
)

// For looks up the catalogue entry. Unknown speaking types fall back to read aloud and
// unknown writing types to the essay window.
func For(section models.Section, t models.QuestionType) ItemTiming {
	switch section {
	case models.SectionSpeaking:
		pa, ok := speakingTimings[t]
		if !ok {
			pa = speakingTimings[models.ReadAloud]
		}
		return ItemTiming{Section: section, Type: t, PrepMs: pa.prep, AnswerMs: pa.answer}
	case models.SectionWriting:
		answer, ok := writingTimings[t]
		if !ok {
			answer = writingTimings[models.WriteEssay]
		}
		return ItemTiming{Section: section, Type: t, AnswerMs: answer}
	case models.SectionReading:
		return ItemTiming{Section: section, Type: t, SectionMs: readingSectionMs}
	case models.SectionListening:
		if t == models.SummarizeSpokenText {
			return ItemTiming{Section: section, Type: t, AnswerMs: summarizeSpokenTextMs}
		}
		return ItemTiming{Section: section, Type: t, SectionMs: listeningSectionMs}
	}
	return ItemTiming{Section: section, Type: t, AnswerMs: DefaultAnswerMs}
}

// FormatLabel builds the accessible label shown next to a timer.
func FormatLabel(section models.Section, t models.QuestionType) string {
	pretty := strings.ReplaceAll(string(t), "_", " ")
	switch section {
	case models.SectionSpeaking:
		return "Speaking · " + pretty
	case models.SectionWriting:
		return "Writing · " + pretty
	case models.SectionReading:
		return "Reading Section"
	case models.SectionListening:
		if t == models.SummarizeSpokenText {
			return "Listening · Summarize Spoken Text"
		}
		return "Listening Section"
	}
	return "PTE"
}
