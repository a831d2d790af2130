package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Section is one of the four exam sections.
type Section string

const (
	SectionSpeaking  Section = "speaking"
	SectionWriting   Section = "writing"
	SectionReading   Section = "reading"
	SectionListening Section = "listening"
)

// Sections lists every section in exam order.
var Sections = []Section{SectionSpeaking, SectionWriting, SectionReading, SectionListening}

func (s Section) IsValid() bool {
	switch s {
	case SectionSpeaking, SectionWriting, SectionReading, SectionListening:
		return true
	}
	return false
}

// Upper returns the upper-case form used in task names and rubric tables.
func (s Section) Upper() string {
	return strings.ToUpper(string(s))
}

type QuestionType string

const (
	// Speaking
	ReadAloud                QuestionType = "read_aloud"
	RepeatSentence           QuestionType = "repeat_sentence"
	DescribeImage            QuestionType = "describe_image"
	RetellLecture            QuestionType = "retell_lecture"
	AnswerShortQuestion      QuestionType = "answer_short_question"
	SummarizeGroupDiscussion QuestionType = "summarize_group_discussion"
	RespondToSituation       QuestionType = "respond_to_a_situation"

	// Writing
	SummarizeWrittenText QuestionType = "summarize_written_text"
	WriteEssay           QuestionType = "write_essay"

	// Reading
	MultipleChoiceSingle       QuestionType = "multiple_choice_single"
	MultipleChoiceMultiple     QuestionType = "multiple_choice_multiple"
	FillInBlanks               QuestionType = "fill_in_blanks"
	ReadingWritingFillInBlanks QuestionType = "reading_writing_fill_blanks"
	ReorderParagraphs          QuestionType = "reorder_paragraphs"

	// Listening
	SummarizeSpokenText     QuestionType = "summarize_spoken_text"
	HighlightCorrectSummary QuestionType = "highlight_correct_summary"
	SelectMissingWord       QuestionType = "select_missing_word"
	HighlightIncorrectWords QuestionType = "highlight_incorrect_words"
	WriteFromDictation      QuestionType = "write_from_dictation"
)

// SectionQuestionTypes is the closed set of task shapes each section accepts.
var SectionQuestionTypes = map[Section][]QuestionType{
	SectionSpeaking: {
		ReadAloud, RepeatSentence, DescribeImage, RetellLecture,
		AnswerShortQuestion, SummarizeGroupDiscussion, RespondToSituation,
	},
	SectionWriting: {SummarizeWrittenText, WriteEssay},
	SectionReading: {
		MultipleChoiceSingle, MultipleChoiceMultiple, FillInBlanks,
		ReadingWritingFillInBlanks, ReorderParagraphs,
	},
	SectionListening: {
		SummarizeSpokenText, MultipleChoiceSingle, MultipleChoiceMultiple, FillInBlanks,
		HighlightCorrectSummary, SelectMissingWord, HighlightIncorrectWords, WriteFromDictation,
	},
}

// Supports reports whether the section accepts the question type.
func (s Section) Supports(t QuestionType) bool {
	for _, qt := range SectionQuestionTypes[s] {
		if qt == t {
			return true
		}
	}
	return false
}

// IsKnownQuestionType reports whether t belongs to any section.
func IsKnownQuestionType(t QuestionType) bool {
	for _, s := range Sections {
		if s.Supports(t) {
			return true
		}
	}
	return false
}

// TaskName builds the upper-case task identifier recorded in scoring metadata,
// e.g. READING_MULTIPLE_CHOICE_SINGLE.
func TaskName(section Section, t QuestionType) string {
	return fmt.Sprintf("%s_%s", section.Upper(), strings.ToUpper(string(t)))
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

type Question struct {
	ID      uint         `json:"id" gorm:"primaryKey"`
	Section Section      `json:"section" gorm:"not null;index;size:20"`
	Type    QuestionType `json:"type" gorm:"not null;index;size:64"`
	Title   string       `json:"title" gorm:"not null;size:255"`
	Prompt  string       `json:"prompt" gorm:"type:text"`

	// Options shown to the learner, e.g. [{"id":"A","text":"..."}]
	Options datatypes.JSON `json:"options" gorm:"type:jsonb"`
	// Answer key, never serialized to learners
	AnswerKey datatypes.JSON `json:"-" gorm:"type:jsonb"`

	Transcript *string         `json:"-" gorm:"type:text"` // listening audio transcript
	AudioURL   *string         `json:"audio_url" gorm:"size:500"`
	ImageURL   *string         `json:"image_url" gorm:"size:500"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"default:medium;index"`
	IsActive   bool            `json:"is_active" gorm:"default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnswerKey is the decoded form of Question.AnswerKey. Which fields are set depends on
// the question type.
type AnswerKey struct {
	Correct    string            `json:"correct,omitempty"`     // single choice
	CorrectSet []string          `json:"correct_set,omitempty"` // multiple choice
	Blanks     map[string]string `json:"blanks,omitempty"`      // blank index -> answer
	Order      []string          `json:"order,omitempty"`       // paragraph ids in correct order
	Indices    []int             `json:"indices,omitempty"`     // incorrect word positions
	Reference  string            `json:"reference,omitempty"`   // dictation / read-aloud reference text
	MinWords   int               `json:"min_words,omitempty"`
	MaxWords   int               `json:"max_words,omitempty"`
}

// DecodeAnswerKey unmarshals the stored answer key. Transcript-backed questions fall back
// to the transcript as reference text.
func (q *Question) DecodeAnswerKey() (*AnswerKey, error) {
	key := &AnswerKey{}
	if len(q.AnswerKey) > 0 {
		if err := json.Unmarshal(q.AnswerKey, key); err != nil {
			return nil, fmt.Errorf("failed to decode answer key for question %d: %w", q.ID, err)
		}
	}
	if key.Reference == "" && q.Transcript != nil {
		key.Reference = *q.Transcript
	}
	return key, nil
}
