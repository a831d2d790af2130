package grader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantErr     bool
		wantOverall *float64
		wantSubs    models.RawSubscores
	}{
		{
			name:        "plain object",
			raw:         `{"overall": 70, "subscores": {"content": 80, "grammar": 60}, "rationale": "ok"}`,
			wantOverall: models.Float64(70),
			wantSubs:    models.RawSubscores{"content": 80, "grammar": 60},
		},
		{
			name:     "fenced with prose",
			raw:      "Here you go:\n```json\n{\"subscores\": {\"content\": 55, \"spelling\": \"n/a\"}}\n```",
			wantSubs: models.RawSubscores{"content": 55},
		},
		{name: "rationale only", raw: `{"rationale": "missed two blanks"}`},
		{name: "no object", raw: "I cannot grade this", wantErr: true},
		{name: "empty object", raw: "{}", wantErr: true},
		{name: "broken json", raw: `{"overall": }`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeReply(tt.raw, "test", "m1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOverall, got.Overall)
			if tt.wantSubs != nil {
				assert.Equal(t, tt.wantSubs, got.Subscores)
			}
			assert.Equal(t, &models.ProviderMeta{Provider: "test", Model: "m1"}, got.Meta)
		})
	}
}

func TestBuildPrompts(t *testing.T) {
	task := Task{
		Section:      models.SectionWriting,
		QuestionType: models.WriteEssay,
		Prompt:       "Discuss remote work.",
		Response:     "  Remote work is good.  ",
		MinWords:     200,
		MaxWords:     300,
	}

	system := BuildSystemPrompt(task)
	for _, dim := range []string{"content", "structure", "coherence", "grammar", "vocabulary", "spelling"} {
		assert.Contains(t, system, "- "+dim)
	}
	assert.Contains(t, system, "200 to 300 words")
	assert.Contains(t, system, `"subscores"`)

	user := BuildUserPrompt(task)
	assert.Contains(t, user, "PROMPT:\nDiscuss remote work.")
	assert.True(t, strings.HasSuffix(user, "LEARNER RESPONSE:\nRemote work is good."))
	assert.NotContains(t, user, "REFERENCE")
}

func TestBuildPrompts_RationaleOnly(t *testing.T) {
	task := Task{
		Section:       models.SectionListening,
		QuestionType:  models.WriteFromDictation,
		Reference:     "the lecture starts at noon",
		Response:      "the lecture start at noon",
		Deterministic: &models.ScoringResult{Overall: 72, Rationale: "1 word differs"},
	}
	require.True(t, task.RationaleOnly())

	system := BuildSystemPrompt(task)
	assert.Contains(t, system, "Do not re-score")
	assert.NotContains(t, system, "RUBRIC")

	user := BuildUserPrompt(task)
	assert.Contains(t, user, "AUTOMATIC SCORE: 72/90")
	assert.Contains(t, user, "AUTOMATIC NOTES: 1 word differs")
	assert.Contains(t, user, "REFERENCE:\nthe lecture starts at noon")
}

func newChatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])
		assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_Grade(t *testing.T) {
	srv := newChatServer(t, `{"overall": 64, "subscores": {"content": 70, "grammar": 58}, "rationale": "Solid argument."}`, http.StatusOK)
	g := NewOpenAI(srv.URL, "test-key", "gpt-test")
	assert.Equal(t, ProviderOpenAI, g.Name())

	got, err := g.Grade(context.Background(), Task{Section: models.SectionWriting, QuestionType: models.WriteEssay, Response: "text"})
	require.NoError(t, err)
	assert.Equal(t, models.Float64(64), got.Overall)
	assert.Equal(t, models.RawSubscores{"content": 70, "grammar": 58}, got.Subscores)
	assert.Equal(t, "Solid argument.", got.Rationale)
	assert.Equal(t, "gpt-test", got.Meta.Model)
}

func TestOpenAI_GradeServerError(t *testing.T) {
	srv := newChatServer(t, "", http.StatusInternalServerError)
	g := NewOpenAI(srv.URL, "test-key", "gpt-test")

	_, err := g.Grade(context.Background(), Task{Section: models.SectionWriting, QuestionType: models.WriteEssay})
	assert.Error(t, err)
}
