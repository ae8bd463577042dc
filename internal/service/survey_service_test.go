package service

import (
	"context"
	"errors"
	"testing"

	"occ-api/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func sampleSurvey() *model.Survey {
	return &model.Survey{
		ID:     uuid.New(),
		Title:  "Satisfação 2024",
		Active: true,
		Questions: []model.SurveyQuestion{
			{ID: uuid.New(), Text: "Como avalia o atendimento?", Type: model.QuestionRating, Required: true, Order: 1},
			{ID: uuid.New(), Text: "Qual canal prefere?", Type: model.QuestionAlternative, Options: datatypes.JSON(`["email","telefone"]`), Order: 2},
			{ID: uuid.New(), Text: "Comentários gerais", Type: model.QuestionEssay, Order: 3},
		},
	}
}

func newSurveyFixture(survey *model.Survey) (*mockSurveyRepo, SurveyService) {
	repo := &mockSurveyRepo{
		GetByIDFn:        func(context.Context, uuid.UUID) (*model.Survey, error) { return survey, nil },
		HasRespondedFn:   func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil },
		CreateResponseFn: func(context.Context, *model.SurveyResponse) error { return nil },
	}
	return repo, NewSurveyService(repo, &mockTx{}, &mockAudit{})
}

func TestCreateSurveyValidatesQuestions(t *testing.T) {
	repo, svc := newSurveyFixture(nil)
	var created *model.Survey
	repo.CreateFn = func(_ context.Context, s *model.Survey) error {
		created = s
		return nil
	}

	_, err := svc.CreateSurvey(context.Background(), Actor{Role: model.RoleAdmin}, SurveyRequest{
		Title: "Pesquisa", Description: "Uma pesquisa de teste",
		Questions: []QuestionRequest{{Text: "Escolha uma", Type: model.QuestionAlternative, Options: []string{"só uma"}, Order: 1}},
	})
	var inErr *InputError
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, "questions[0].options", inErr.Field)

	_, err = svc.CreateSurvey(context.Background(), Actor{Role: model.RoleAdmin}, SurveyRequest{
		Title: "Pesquisa", Description: "Uma pesquisa de teste",
		Questions: []QuestionRequest{
			{Text: "Primeira pergunta", Type: model.QuestionEssay, Order: 1},
			{Text: "Segunda pergunta", Type: model.QuestionEssay, Order: 1},
		},
	})
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, "questions[1].order", inErr.Field)

	survey, err := svc.CreateSurvey(context.Background(), Actor{Role: model.RoleAdmin}, SurveyRequest{
		Title: "Pesquisa", Description: "Uma pesquisa de teste",
		Questions: []QuestionRequest{{Text: "Escolha uma", Type: model.QuestionAlternative, Options: []string{" a ", "b", ""}, Order: 1}},
	})
	require.NoError(t, err)
	assert.Same(t, created, survey)
	assert.True(t, survey.Active)
	assert.JSONEq(t, `["a","b"]`, string(survey.Questions[0].Options))
}

func TestSubmitResponse(t *testing.T) {
	survey := sampleSurvey()
	rating, choice, essay := survey.Questions[0].ID.String(), survey.Questions[1].ID.String(), survey.Questions[2].ID.String()
	actor := Actor{ID: uuid.New(), Role: model.RoleClient}

	cases := []struct {
		name    string
		answers []AnswerRequest
		field   string
	}{
		{"rating too high", []AnswerRequest{{QuestionID: rating, Value: "6"}}, "answers[0].answer_text"},
		{"rating not a number", []AnswerRequest{{QuestionID: rating, Value: "ótimo"}}, "answers[0].answer_text"},
		{"unknown option", []AnswerRequest{{QuestionID: rating, Value: "5"}, {QuestionID: choice, Value: "fax"}}, "answers[1].answer_text"},
		{"foreign question", []AnswerRequest{{QuestionID: uuid.NewString(), Value: "5"}}, "answers[0].question_id"},
		{"duplicate question", []AnswerRequest{{QuestionID: rating, Value: "5"}, {QuestionID: rating, Value: "4"}}, "answers[1].question_id"},
		{"required missing", []AnswerRequest{{QuestionID: essay, Value: "ok"}}, "answers"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, svc := newSurveyFixture(survey)
			_, err := svc.SubmitResponse(context.Background(), actor, survey.ID.String(), SubmitResponseRequest{Answers: tc.answers})
			var inErr *InputError
			require.True(t, errors.As(err, &inErr), "got %v", err)
			assert.Equal(t, tc.field, inErr.Field)
		})
	}

	_, svc := newSurveyFixture(survey)
	resp, err := svc.SubmitResponse(context.Background(), actor, survey.ID.String(), SubmitResponseRequest{Answers: []AnswerRequest{
		{QuestionID: rating, Value: "5"},
		{QuestionID: choice, Value: "email"},
		{QuestionID: essay, Value: " Muito bom "},
	}})
	require.NoError(t, err)
	assert.Equal(t, actor.ID, resp.UserID)
	assert.Len(t, resp.Answers, 3)
	assert.Equal(t, "Muito bom", resp.Answers[2].Value)
}

func TestSubmitResponseOnlyOnce(t *testing.T) {
	survey := sampleSurvey()
	repo, svc := newSurveyFixture(survey)
	repo.HasRespondedFn = func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return true, nil }

	_, err := svc.SubmitResponse(context.Background(), Actor{ID: uuid.New()}, survey.ID.String(), SubmitResponseRequest{
		Answers: []AnswerRequest{{QuestionID: survey.Questions[0].ID.String(), Value: "3"}},
	})
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
}

func TestSubmitResponseConcurrentDuplicateIsRejected(t *testing.T) {
	survey := sampleSurvey()
	repo, svc := newSurveyFixture(survey)
	// Both submissions passed the lookup; the unique index rejects the second insert.
	repo.CreateResponseFn = func(context.Context, *model.SurveyResponse) error { return gorm.ErrDuplicatedKey }

	_, err := svc.SubmitResponse(context.Background(), Actor{ID: uuid.New()}, survey.ID.String(), SubmitResponseRequest{
		Answers: []AnswerRequest{{QuestionID: survey.Questions[0].ID.String(), Value: "4"}},
	})
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
}

func TestInactiveSurveyHiddenFromClients(t *testing.T) {
	survey := sampleSurvey()
	survey.Active = false
	_, svc := newSurveyFixture(survey)

	_, err := svc.GetSurvey(context.Background(), Actor{Role: model.RoleClient}, survey.ID.String())
	assert.ErrorIs(t, err, ErrSurveyNotFound)

	got, err := svc.GetSurvey(context.Background(), Actor{Role: model.RoleAdmin}, survey.ID.String())
	require.NoError(t, err)
	assert.Equal(t, survey.ID, got.ID)

	_, err = svc.SubmitResponse(context.Background(), Actor{ID: uuid.New()}, survey.ID.String(), SubmitResponseRequest{
		Answers: []AnswerRequest{{QuestionID: survey.Questions[0].ID.String(), Value: "3"}},
	})
	assert.ErrorIs(t, err, ErrSurveyNotFound)
}
