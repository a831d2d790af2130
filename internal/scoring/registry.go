package scoring

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

var (
	ErrNoScorer      = errors.New("no scorer registered for question type")
	ErrResponseShape = errors.New("response shape does not match question type")
)

// Kind says how a question type is graded.
type Kind string

const (
	// KindDeterministic types are scored locally; an AI grader may only add a rationale.
	KindDeterministic Kind = "deterministic"
	// KindHeuristic types prefer the AI grader and fall back to a local approximation.
	KindHeuristic Kind = "heuristic"
	// KindAIOnly types cannot be scored without an AI grader.
	KindAIOnly Kind = "ai_only"
)

// Scorer grades one decoded response against its answer key.
type Scorer func(resp models.UserResponse, key *models.AnswerKey) (*models.ScoringResult, error)

type Entry struct {
	Kind  Kind
	Score Scorer
}

// Registry is the dispatch table from question type to scorer.
type Registry struct {
	entries map[models.QuestionType]Entry
}

// NewRegistry builds the default table. Types listed in aiOnly lose their local fallback.
func NewRegistry(aiOnly ...models.QuestionType) *Registry {
	r := &Registry{entries: make(map[models.QuestionType]Entry)}

	for _, t := range []models.QuestionType{models.MultipleChoiceSingle, models.HighlightCorrectSummary, models.SelectMissingWord} {
		r.Register(t, Entry{Kind: KindDeterministic, Score: scoreSingleChoice})
	}
	r.Register(models.MultipleChoiceMultiple, Entry{Kind: KindDeterministic, Score: scoreMultiChoice})
	r.Register(models.FillInBlanks, Entry{Kind: KindDeterministic, Score: scoreBlanks})
	r.Register(models.ReadingWritingFillInBlanks, Entry{Kind: KindDeterministic, Score: scoreBlanks})
	r.Register(models.ReorderParagraphs, Entry{Kind: KindDeterministic, Score: scoreOrder})
	r.Register(models.HighlightIncorrectWords, Entry{Kind: KindDeterministic, Score: scoreIndices})
	r.Register(models.WriteFromDictation, Entry{Kind: KindDeterministic, Score: scoreDictation})

	for _, t := range []models.QuestionType{models.SummarizeWrittenText, models.WriteEssay, models.SummarizeSpokenText} {
		r.Register(t, Entry{Kind: KindHeuristic, Score: summaryScorer(t)})
	}
	for _, t := range models.SectionQuestionTypes[models.SectionSpeaking] {
		r.Register(t, Entry{Kind: KindHeuristic, Score: speakingScorer(t)})
	}

	for _, t := range aiOnly {
		if e, ok := r.entries[t]; ok && e.Kind == KindHeuristic {
			r.entries[t] = Entry{Kind: KindAIOnly}
		}
	}
	return r
}

// Register adds or replaces the entry for a question type.
func (r *Registry) Register(t models.QuestionType, e Entry) {
	r.entries[t] = e
}

// Lookup returns the entry for a question type.
func (r *Registry) Lookup(t models.QuestionType) (Entry, bool) {
	e, ok := r.entries[t]
	return e, ok
}

// Score runs the local scorer and stamps the section-qualified task name.
func (r *Registry) Score(section models.Section, t models.QuestionType, resp models.UserResponse, key *models.AnswerKey) (*models.ScoringResult, error) {
	e, ok := r.entries[t]
	if !ok || e.Score == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoScorer, t)
	}
	if key == nil {
		key = &models.AnswerKey{}
	}
	result, err := e.Score(resp, key)
	if err != nil {
		return nil, err
	}
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	result.Metadata["task"] = models.TaskName(section, t)
	return result, nil
}

func shapeError(want models.ResponseShape, resp models.UserResponse) error {
	got := models.ResponseShape("none")
	if resp != nil {
		got = resp.Shape()
	}
	return fmt.Errorf("%w: want %s, got %s", ErrResponseShape, want, got)
}

func scoreSingleChoice(resp models.UserResponse, key *models.AnswerKey) (*models.ScoringResult, error) {
	r, ok := resp.(models.SingleChoiceResponse)
	if !ok {
		return nil, shapeError(models.ShapeSingleChoice, resp)
	}
	return ScoreMCQSingle(r.SelectedOption, key.Correct), nil
}

func scoreMultiChoice(resp models.UserResponse, key *models.AnswerKey) (*models.ScoringResult, error) {
	r, ok := resp.(models.MultiChoiceResponse)
	if !ok {
		return nil, shapeError(models.ShapeMultiChoice, resp)
	}
	return ScoreMCQMultiple(r.SelectedOptions, key.CorrectSet), nil
}

func scoreBlanks(resp models.UserResponse, key *models.AnswerKey) (*models.ScoringResult, error) {
	r, ok := resp.(models.BlanksResponse)
	if !ok {
		return nil, shapeError(models.ShapeBlanks, resp)
	}
	return ScoreFillInBlanks(r.Answers, key.Blanks), nil
}

func scoreOrder(resp models.UserResponse, key *models.AnswerKey) (*models.ScoringResult, error) {
	r, ok := resp.(models.OrderResponse)
	if !ok {
		return nil, shapeError(models.ShapeOrder, resp)
	}
	return ScoreReorderParagraphs(r.Order, key.Order), nil
}

func scoreIndices(resp models.UserResponse, key *models.AnswerKey) (*models.ScoringResult, error) {
	r, ok := resp.(models.IndicesResponse)
	if !ok {
		return nil, shapeError(models.ShapeIndices, resp)
	}
	return ScoreHighlightIncorrectWords(r.Indices, key.Indices), nil
}

func scoreDictation(resp models.UserResponse, key *models.AnswerKey) (*models.ScoringResult, error) {
	r, ok := resp.(models.TextResponse)
	if !ok {
		return nil, shapeError(models.ShapeText, resp)
	}
	return ScoreWriteFromDictation(key.Reference, r.TextAnswer), nil
}

func summaryScorer(t models.QuestionType) Scorer {
	return func(resp models.UserResponse, _ *models.AnswerKey) (*models.ScoringResult, error) {
		r, ok := resp.(models.TextResponse)
		if !ok {
			return nil, shapeError(models.ShapeText, resp)
		}
		return ScoreSummaryLength(t, r.TextAnswer), nil
	}
}

func speakingScorer(t models.QuestionType) Scorer {
	return func(resp models.UserResponse, key *models.AnswerKey) (*models.ScoringResult, error) {
		r, ok := resp.(models.SpokenResponse)
		if !ok {
			return nil, shapeError(models.ShapeSpoken, resp)
		}
		return ScoreSpeakingHeuristic(t, r.Transcript, key.Reference, r.DurationMs), nil
	}
}
