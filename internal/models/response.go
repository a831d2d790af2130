package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ResponseShape names the payload layout a question type expects from the learner.
type ResponseShape string

const (
	ShapeText         ResponseShape = "text"
	ShapeSingleChoice ResponseShape = "single_choice"
	ShapeMultiChoice  ResponseShape = "multi_choice"
	ShapeBlanks       ResponseShape = "blanks"
	ShapeOrder        ResponseShape = "order"
	ShapeIndices      ResponseShape = "indices"
	ShapeSpoken       ResponseShape = "spoken"
)

var ErrUnknownResponseShape = errors.New("no response shape for question type")

var questionShapes = map[QuestionType]ResponseShape{
	ReadAloud:                  ShapeSpoken,
	RepeatSentence:             ShapeSpoken,
	DescribeImage:              ShapeSpoken,
	RetellLecture:              ShapeSpoken,
	AnswerShortQuestion:        ShapeSpoken,
	SummarizeGroupDiscussion:   ShapeSpoken,
	RespondToSituation:         ShapeSpoken,
	SummarizeWrittenText:       ShapeText,
	WriteEssay:                 ShapeText,
	SummarizeSpokenText:        ShapeText,
	WriteFromDictation:         ShapeText,
	MultipleChoiceSingle:       ShapeSingleChoice,
	HighlightCorrectSummary:    ShapeSingleChoice,
	SelectMissingWord:          ShapeSingleChoice,
	MultipleChoiceMultiple:     ShapeMultiChoice,
	FillInBlanks:               ShapeBlanks,
	ReadingWritingFillInBlanks: ShapeBlanks,
	ReorderParagraphs:          ShapeOrder,
	HighlightIncorrectWords:    ShapeIndices,
}

// ShapeFor returns the response shape for a question type.
func ShapeFor(t QuestionType) (ResponseShape, bool) {
	s, ok := questionShapes[t]
	return s, ok
}

// UserResponse is a learner submission. Concrete types are the variants below; the
// question type decides which one a payload decodes into.
type UserResponse interface {
	Shape() ResponseShape
}

type TextResponse struct {
	TextAnswer string `json:"textAnswer" validate:"required"`
}

type SingleChoiceResponse struct {
	SelectedOption string `json:"selectedOption" validate:"required"`
}

type MultiChoiceResponse struct {
	SelectedOptions []string `json:"selectedOptions" validate:"required,min=1,dive,required"`
}

type BlanksResponse struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

type OrderResponse struct {
	Order []string `json:"order" validate:"required,min=1,dive,required"`
}

type IndicesResponse struct {
	Indices []int `json:"indices" validate:"dive,min=0"`
}

type SpokenResponse struct {
	Transcript string `json:"transcript" validate:"required,max=5000"`
	AudioURL   string `json:"audioUrl,omitempty" validate:"omitempty,url"`
	DurationMs int64  `json:"durationMs,omitempty" validate:"min=0"`
}

func (TextResponse) Shape() ResponseShape         { return ShapeText }
func (SingleChoiceResponse) Shape() ResponseShape { return ShapeSingleChoice }
func (MultiChoiceResponse) Shape() ResponseShape  { return ShapeMultiChoice }
func (BlanksResponse) Shape() ResponseShape       { return ShapeBlanks }
func (OrderResponse) Shape() ResponseShape        { return ShapeOrder }
func (IndicesResponse) Shape() ResponseShape      { return ShapeIndices }
func (SpokenResponse) Shape() ResponseShape       { return ShapeSpoken }

// DecodeUserResponse decodes raw into the variant expected by the question type. A
// payload whose fields have the wrong JSON type is rejected rather than coerced.
func DecodeUserResponse(t QuestionType, raw json.RawMessage) (UserResponse, error) {
	shape, ok := ShapeFor(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResponseShape, t)
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("user response is required for %s", t)
	}

	var (
		resp UserResponse
		err  error
	)
	switch shape {
	case ShapeText:
		var r TextResponse
		err = json.Unmarshal(raw, &r)
		resp = r
	case ShapeSingleChoice:
		var r SingleChoiceResponse
		err = json.Unmarshal(raw, &r)
		resp = r
	case ShapeMultiChoice:
		var r MultiChoiceResponse
		err = json.Unmarshal(raw, &r)
		resp = r
	case ShapeBlanks:
		var r BlanksResponse
		err = json.Unmarshal(raw, &r)
		resp = r
	case ShapeOrder:
		var r OrderResponse
		err = json.Unmarshal(raw, &r)
		resp = r
	case ShapeIndices:
		var r IndicesResponse
		err = json.Unmarshal(raw, &r)
		resp = r
	case ShapeSpoken:
		var r SpokenResponse
		err = json.Unmarshal(raw, &r)
		resp = r
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s response: %w", shape, err)
	}
	return resp, nil
}
