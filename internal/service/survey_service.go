package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"occ-api/internal/model"
	"occ-api/internal/repository"
	"occ-api/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	minRating = 1
	maxRating = 5
)

type QuestionRequest struct {
	Text     string   `json:"question_text" binding:"required,min=5"`
	Type     string   `json:"type" binding:"required,oneof=ALTERNATIVA DISSERTATIVA RATING"`
	Options  []string `json:"options"`
	Required bool     `json:"required"`
	Order    int      `json:"order" binding:"required,min=1"`
}

type SurveyRequest struct {
	Title       string            `json:"title" binding:"required,min=3,max=255"`
	Description string            `json:"description" binding:"required,min=10"`
	Active      *bool             `json:"is_active"`
	Questions   []QuestionRequest `json:"questions" binding:"dive"`
}

type AnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Value      string `json:"answer_text" binding:"required"`
}

type SubmitResponseRequest struct {
	Answers []AnswerRequest `json:"answers" binding:"required,min=1,dive"`
}

type SurveyService interface {
	CreateSurvey(ctx context.Context, actor Actor, req SurveyRequest) (*model.Survey, error)
	GetSurvey(ctx context.Context, actor Actor, id string) (*model.Survey, error)
	ListSurveys(ctx context.Context, actor Actor, p pagination.Params) ([]model.Survey, int64, error)
	UpdateSurvey(ctx context.Context, actor Actor, id string, req SurveyRequest) (*model.Survey, error)
	DeleteSurvey(ctx context.Context, actor Actor, id string) error

	SubmitResponse(ctx context.Context, actor Actor, surveyID string, req SubmitResponseRequest) (*model.SurveyResponse, error)
	ListResponses(ctx context.Context, surveyID string, p pagination.Params) ([]model.SurveyResponse, int64, error)
}

type surveyService struct {
	repo  repository.SurveyRepository
	tx    repository.TransactionManager
	audit AuditService
}

func NewSurveyService(repo repository.SurveyRepository, tx repository.TransactionManager, audit AuditService) SurveyService {
	return &surveyService{repo: repo, tx: tx, audit: audit}
}

func buildQuestions(reqs []QuestionRequest) ([]model.SurveyQuestion, error) {
	seen := make(map[int]bool, len(reqs))
	out := make([]model.SurveyQuestion, 0, len(reqs))
	for i, q := range reqs {
		field := fmt.Sprintf("questions[%d]", i)
		if seen[q.Order] {
			return nil, invalidInput(field+".order", "order %d is used twice", q.Order)
		}
		seen[q.Order] = true

		var options datatypes.JSON
		switch q.Type {
		case model.QuestionAlternative:
			clean := make([]string, 0, len(q.Options))
			for _, o := range q.Options {
				if o = strings.TrimSpace(o); o != "" {
					clean = append(clean, o)
				}
			}
			if len(clean) < 2 {
				return nil, invalidInput(field+".options", "multiple choice questions need at least two options")
			}
			b, err := json.Marshal(clean)
			if err != nil {
				return nil, err
			}
			options = datatypes.JSON(b)
		default:
			if len(q.Options) > 0 {
				return nil, invalidInput(field+".options", "only %s questions take options", model.QuestionAlternative)
			}
		}

		out = append(out, model.SurveyQuestion{
			Text:     strings.TrimSpace(q.Text),
			Type:     q.Type,
			Options:  options,
			Required: q.Required,
			Order:    q.Order,
		})
	}
	return out, nil
}

func (s *surveyService) CreateSurvey(ctx context.Context, actor Actor, req SurveyRequest) (*model.Survey, error) {
	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	survey := &model.Survey{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Active:      req.Active == nil || *req.Active,
		Questions:   questions,
		CreatedBy:   actor.ID,
	}
	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionCreateSurvey, "survey", survey.ID.String(), map[string]interface{}{"title": survey.Title})
	return survey, nil
}

func (s *surveyService) getSurvey(ctx context.Context, id string) (*model.Survey, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, invalidInput("id", "invalid survey id")
	}
	survey, err := s.repo.GetByID(ctx, sid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to fetch survey: %w", err)
	}
	return survey, nil
}

// GetSurvey hides inactive surveys from clients.
func (s *surveyService) GetSurvey(ctx context.Context, actor Actor, id string) (*model.Survey, error) {
	survey, err := s.getSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if !survey.Active && !actor.IsStaff() {
		return nil, ErrSurveyNotFound
	}
	return survey, nil
}

func (s *surveyService) ListSurveys(ctx context.Context, actor Actor, p pagination.Params) ([]model.Survey, int64, error) {
	surveys, total, err := s.repo.List(ctx, !actor.IsStaff(), repository.Page{Offset: p.Offset, Limit: p.Limit})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list surveys: %w", err)
	}
	return surveys, total, nil
}

// UpdateSurvey replaces the question set when questions are sent.
func (s *surveyService) UpdateSurvey(ctx context.Context, actor Actor, id string, req SurveyRequest) (*model.Survey, error) {
	survey, err := s.getSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	var questions []model.SurveyQuestion
	if req.Questions != nil {
		if questions, err = buildQuestions(req.Questions); err != nil {
			return nil, err
		}
	}

	survey.Title = strings.TrimSpace(req.Title)
	survey.Description = strings.TrimSpace(req.Description)
	if req.Active != nil {
		survey.Active = *req.Active
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, survey); err != nil {
			return fmt.Errorf("failed to update survey: %w", err)
		}
		if req.Questions == nil {
			return nil
		}
		if err := s.repo.ReplaceQuestions(txCtx, survey.ID, questions); err != nil {
			return fmt.Errorf("failed to replace questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.getSurvey(ctx, id)
}

func (s *surveyService) DeleteSurvey(ctx context.Context, actor Actor, id string) error {
	survey, err := s.getSurvey(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, survey.ID); err != nil {
		return fmt.Errorf("failed to delete survey: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionDeleteSurvey, "survey", survey.ID.String(), map[string]interface{}{"title": survey.Title})
	return nil
}

func checkAnswer(field string, q model.SurveyQuestion, value string) error {
	switch q.Type {
	case model.QuestionRating:
		n, err := strconv.Atoi(value)
		if err != nil || n < minRating || n > maxRating {
			return invalidInput(field, "rating must be an integer from %d to %d", minRating, maxRating)
		}
	case model.QuestionAlternative:
		var options []string
		if err := json.Unmarshal(q.Options, &options); err != nil {
			return fmt.Errorf("failed to decode options of question %s: %w", q.ID, err)
		}
		if !contains(options, value) {
			return invalidInput(field, "answer must be one of the question options")
		}
	}
	return nil
}

func (s *surveyService) SubmitResponse(ctx context.Context, actor Actor, surveyID string, req SubmitResponseRequest) (*model.SurveyResponse, error) {
	survey, err := s.getSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !survey.Active {
		return nil, ErrSurveyNotFound
	}

	answered, err := s.repo.HasResponded(ctx, survey.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check previous response: %w", err)
	}
	if answered {
		return nil, ErrAlreadyAnswered
	}

	byID := make(map[uuid.UUID]model.SurveyQuestion, len(survey.Questions))
	for _, q := range survey.Questions {
		byID[q.ID] = q
	}

	answers := make([]model.SurveyAnswer, 0, len(req.Answers))
	got := make(map[uuid.UUID]bool, len(req.Answers))
	for i, a := range req.Answers {
		field := fmt.Sprintf("answers[%d]", i)
		qid, err := uuid.Parse(a.QuestionID)
		if err != nil {
			return nil, invalidInput(field+".question_id", "invalid question id")
		}
		q, ok := byID[qid]
		if !ok {
			return nil, invalidInput(field+".question_id", "question does not belong to this survey")
		}
		if got[qid] {
			return nil, invalidInput(field+".question_id", "question answered twice")
		}
		got[qid] = true

		value := strings.TrimSpace(a.Value)
		if value == "" {
			return nil, invalidInput(field+".answer_text", "answer must not be empty")
		}
		if err := checkAnswer(field+".answer_text", q, value); err != nil {
			return nil, err
		}
		answers = append(answers, model.SurveyAnswer{QuestionID: qid, Value: value})
	}
	for _, q := range survey.Questions {
		if q.Required && !got[q.ID] {
			return nil, invalidInput("answers", "question %q is required", q.Text)
		}
	}

	resp := &model.SurveyResponse{SurveyID: survey.ID, UserID: actor.ID, Answers: answers}
	if err := s.repo.CreateResponse(ctx, resp); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyAnswered
		}
		return nil, fmt.Errorf("failed to save response: %w", err)
	}
	return resp, nil
}

func (s *surveyService) ListResponses(ctx context.Context, surveyID string, p pagination.Params) ([]model.SurveyResponse, int64, error) {
	survey, err := s.getSurvey(ctx, surveyID)
	if err != nil {
		return nil, 0, err
	}
	responses, total, err := s.repo.ListResponses(ctx, survey.ID, repository.Page{Offset: p.Offset, Limit: p.Limit})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, total, nil
}
