package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestScoreSummaryLength(t *testing.T) {
	tests := []struct {
		name       string
		qt         models.QuestionType
		wordCount  int
		want       int
		wantWithin bool
	}{
		{name: "swt within range", qt: models.SummarizeWrittenText, wordCount: 20, want: 75, wantWithin: true},
		{name: "swt too short", qt: models.SummarizeWrittenText, wordCount: 3, want: 50},
		{name: "swt far too long", qt: models.SummarizeWrittenText, wordCount: 110, want: 50},
		{name: "swt slightly long", qt: models.SummarizeWrittenText, wordCount: 80, want: 55},
		{name: "essay within range", qt: models.WriteEssay, wordCount: 250, want: 75, wantWithin: true},
		{name: "essay too short", qt: models.WriteEssay, wordCount: 100, want: 47},
		{name: "essay too long", qt: models.WriteEssay, wordCount: 600, want: 47},
		{name: "sst within range", qt: models.SummarizeSpokenText, wordCount: 60, want: 75, wantWithin: true},
		{name: "sst very short", qt: models.SummarizeSpokenText, wordCount: 5, want: 25},
		{name: "sst long", qt: models.SummarizeSpokenText, wordCount: 95, want: 45},
		{name: "sst empty", qt: models.SummarizeSpokenText, wordCount: 0, want: 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreSummaryLength(tt.qt, words(tt.wordCount))
			assert.Equal(t, tt.want, got.Overall)
			assert.Equal(t, tt.wordCount, got.Metadata["wordCount"])
			assert.Equal(t, tt.wantWithin, got.Metadata["withinRange"])
			assert.Equal(t, ProviderHeuristic, got.Metadata["provider"])
		})
	}
}

func TestExpectedLength(t *testing.T) {
	r, ok := ExpectedLength(models.SummarizeSpokenText)
	assert.True(t, ok)
	assert.Equal(t, LengthRange{Min: 50, Max: 70}, r)

	_, ok = ExpectedLength(models.MultipleChoiceSingle)
	assert.False(t, ok)
}

func TestScoreSpeakingHeuristic(t *testing.T) {
	t.Run("no speech", func(t *testing.T) {
		got := ScoreSpeakingHeuristic(models.ReadAloud, "   ", "the cat sat", 5000)
		assert.Equal(t, 0, got.Overall)
		assert.Equal(t, 0, got.Subscores["fluency"])
	})

	t.Run("read aloud at a natural pace", func(t *testing.T) {
		// 6 words in 3s is 120 wpm
		got := ScoreSpeakingHeuristic(models.ReadAloud, "The cat sat on the mat", "the cat sat on the mat", 3000)
		assert.Equal(t, map[string]int{"content": 90, "pronunciation": 90, "fluency": 90}, got.Subscores)
		assert.Equal(t, 90, got.Overall)
		assert.Equal(t, 120, got.Metadata["wordsPerMinute"])
	})

	t.Run("answer short question", func(t *testing.T) {
		got := ScoreSpeakingHeuristic(models.AnswerShortQuestion, "Paris", "", 2000)
		assert.Equal(t, 90, got.Subscores["content"])
		assert.Equal(t, 77, got.Overall)
	})

	t.Run("describe image short answer", func(t *testing.T) {
		// 10 words in 60s is 10 wpm
		got := ScoreSpeakingHeuristic(models.DescribeImage, words(10), "", 60000)
		assert.Equal(t, 40, got.Subscores["content"])
		assert.Equal(t, 50, got.Subscores["fluency"])
		assert.Equal(t, 45, got.Subscores["pronunciation"])
		assert.Contains(t, got.Rationale, "pace was slow")
	})

	t.Run("filler rate", func(t *testing.T) {
		got := ScoreSpeakingHeuristic(models.RetellLecture, "um the lecture uh was about", "", 3000)
		assert.Equal(t, 33, got.Metadata["fillerRate"])
	})
}
