package api

import (
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/askflow/internal/errors"
)

// GJSON paths of the ask endpoint's response bodies
const (
	PathAnswer = "answer"
	PathError  = "error"
)

// AnswerPayload is the success schema: {"answer": string}
type AnswerPayload struct {
	Answer *string
}

// ErrorPayload is the failure schema: {"error": string}, error optional
type ErrorPayload struct {
	Error *string
}

// ParseAnswerPayload validates a 2xx body. A body that is not a JSON object
// is a ParseError; a missing or non-string answer leaves Answer nil.
func ParseAnswerPayload(body []byte) (AnswerPayload, error) {
	root, err := parseObject(body)
	if err != nil {
		return AnswerPayload{}, err
	}
	return AnswerPayload{Answer: stringField(root, PathAnswer)}, nil
}

// ParseErrorPayload validates a non-2xx body the same way
func ParseErrorPayload(body []byte) (ErrorPayload, error) {
	root, err := parseObject(body)
	if err != nil {
		return ErrorPayload{}, err
	}
	return ErrorPayload{Error: stringField(root, PathError)}, nil
}

func parseObject(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, apierrors.NewParseError("response is not valid JSON", "")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return gjson.Result{}, apierrors.NewParseError("response is not a JSON object", "")
	}
	return root, nil
}

func stringField(root gjson.Result, path string) *string {
	v := root.Get(path)
	if v.Type != gjson.String {
		return nil
	}
	s := v.String()
	return &s
}
