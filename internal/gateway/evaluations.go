package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

type modelAnswerEnvelope struct {
	models.Envelope
	ModelAnswer string `json:"model_answer"`
}

type extractedTextEnvelope struct {
	models.Envelope
	ExtractedText string `json:"extracted_text"`
}

type evaluationEnvelope struct {
	models.Envelope
	Evaluation *models.EvaluationRecord `json:"evaluation"`
}

type evaluationsEnvelope struct {
	models.Envelope
	Evaluations []models.EvaluationRecord `json:"evaluations"`
	Count       int                       `json:"count"`
}

// ExtractModelAnswer uploads a model-answer file and returns its extracted text.
func (c *Client) ExtractModelAnswer(ctx context.Context, file models.FileHandle) (string, error) {
	var resp modelAnswerEnvelope
	files := []formFile{{field: "file", file: file}}
	if err := c.doMultipart(ctx, "extract_model_answer", "/upload-model-answer", nil, files, &resp); err != nil {
		return "", err
	}
	return resp.ModelAnswer, nil
}

// ExtractText runs OCR only, without scoring.
func (c *Client) ExtractText(ctx context.Context, file models.FileHandle) (string, error) {
	var resp extractedTextEnvelope
	files := []formFile{{field: "file", file: file}}
	if err := c.doMultipart(ctx, "extract_text", "/ocr-only", nil, files, &resp); err != nil {
		return "", err
	}
	return resp.ExtractedText, nil
}

// SubmitEvaluation sends the student file and context for scoring. Optional
// fields are omitted from the form when empty.
func (c *Client) SubmitEvaluation(ctx context.Context, req models.EvaluationRequest) (*models.EvaluationRecord, error) {
	fields := []formField{
		{name: "model_answer", value: req.ModelAnswerText},
		{name: "max_marks", value: strconv.Itoa(req.MaxMarks)},
	}
	if req.Question != "" {
		fields = append(fields, formField{name: "question", value: req.Question})
	}
	if req.TeacherID != "" {
		fields = append(fields, formField{name: "teacher_id", value: req.TeacherID})
	}
	if req.StudentID != "" {
		fields = append(fields, formField{name: "student_id", value: req.StudentID})
	}
	files := []formFile{{field: "student_file", file: req.StudentFile}}

	var raw json.RawMessage
	if err := c.doMultipart(ctx, "submit_evaluation", "/evaluate-answer", fields, files, &raw); err != nil {
		return nil, err
	}
	return decodeEvaluation("submit_evaluation", raw)
}

// ListEvaluations returns every stored evaluation. The backend answers with a
// bare array; an object with an "evaluations" key is accepted as well.
func (c *Client) ListEvaluations(ctx context.Context) ([]models.EvaluationRecord, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, "list_evaluations", http.MethodGet, "/evaluations", nil, &raw); err != nil {
		return nil, err
	}
	return decodeEvaluations("list_evaluations", raw)
}

func (c *Client) ListRecentEvaluations(ctx context.Context, limit int) ([]models.EvaluationRecord, error) {
	var raw json.RawMessage
	path := "/evaluations/recent?limit=" + strconv.Itoa(limit)
	if err := c.doJSON(ctx, "recent_evaluations", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeEvaluations("recent_evaluations", raw)
}

func (c *Client) GetEvaluation(ctx context.Context, id string) (*models.EvaluationRecord, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, "get_evaluation", http.MethodGet, "/evaluations/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}
	return decodeEvaluation("get_evaluation", raw)
}

func (c *Client) DeleteEvaluation(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete_evaluation", http.MethodDelete, "/evaluations/"+url.PathEscape(id), nil, nil)
}

// decodeEvaluation accepts `{"evaluation": {...}}` or the record itself.
func decodeEvaluation(op string, raw json.RawMessage) (*models.EvaluationRecord, error) {
	var env evaluationEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Evaluation != nil {
		return env.Evaluation, nil
	}
	var rec models.EvaluationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, decodeError(op, err)
	}
	return &rec, nil
}

func decodeEvaluations(op string, raw json.RawMessage) ([]models.EvaluationRecord, error) {
	if len(raw) == 0 {
		return []models.EvaluationRecord{}, nil
	}
	var list []models.EvaluationRecord
	if err := json.Unmarshal(raw, &list); err == nil {
		if list == nil {
			list = []models.EvaluationRecord{}
		}
		return list, nil
	}
	var env evaluationsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, decodeError(op, err)
	}
	if env.Evaluations == nil {
		return []models.EvaluationRecord{}, nil
	}
	return env.Evaluations, nil
}

func decodeError(op string, err error) *GatewayError {
	return &GatewayError{
		Operation:  op,
		StatusCode: http.StatusOK,
		Message:    GenericErrorMessage,
		Err:        fmt.Errorf("%s: decode response: %w", op, err),
	}
}
