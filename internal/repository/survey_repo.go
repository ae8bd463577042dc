package repository

import (
	"context"

	"occ-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SurveyRepository interface {
	Create(ctx context.Context, survey *model.Survey) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Survey, error)
	List(ctx context.Context, activeOnly bool, page Page) ([]model.Survey, int64, error)
	Update(ctx context.Context, survey *model.Survey) error
	ReplaceQuestions(ctx context.Context, surveyID uuid.UUID, questions []model.SurveyQuestion) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateResponse(ctx context.Context, resp *model.SurveyResponse) error
	HasResponded(ctx context.Context, surveyID, userID uuid.UUID) (bool, error)
	ListResponses(ctx context.Context, surveyID uuid.UUID, page Page) ([]model.SurveyResponse, int64, error)
}

type surveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

func (r *surveyRepository) Create(ctx context.Context, survey *model.Survey) error {
	return GetDB(ctx, r.db).Create(survey).Error
}

func (r *surveyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Survey, error) {
	var survey model.Survey
	if err := GetDB(ctx, r.db).Preload("Questions", orderedQuestions).First(&survey, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *surveyRepository) List(ctx context.Context, activeOnly bool, page Page) ([]model.Survey, int64, error) {
	var surveys []model.Survey
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Survey{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(query.Preload("Questions", orderedQuestions).Order("created_at DESC")).Find(&surveys).Error; err != nil {
		return nil, 0, err
	}
	return surveys, total, nil
}

func (r *surveyRepository) Update(ctx context.Context, survey *model.Survey) error {
	return GetDB(ctx, r.db).Omit("Questions").Save(survey).Error
}

func (r *surveyRepository) ReplaceQuestions(ctx context.Context, surveyID uuid.UUID, questions []model.SurveyQuestion) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("survey_id = ?", surveyID).Delete(&model.SurveyQuestion{}).Error; err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}
	for i := range questions {
		questions[i].SurveyID = surveyID
	}
	return db.Create(&questions).Error
}

func (r *surveyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	responses := db.Model(&model.SurveyResponse{}).Select("id").Where("survey_id = ?", id)
	if err := db.Where("response_id IN (?)", responses).Delete(&model.SurveyAnswer{}).Error; err != nil {
		return err
	}
	if err := db.Where("survey_id = ?", id).Delete(&model.SurveyResponse{}).Error; err != nil {
		return err
	}
	if err := db.Where("survey_id = ?", id).Delete(&model.SurveyQuestion{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Survey{}).Error
}

// CreateResponse returns gorm.ErrDuplicatedKey when the user already answered the survey.
func (r *surveyRepository) CreateResponse(ctx context.Context, resp *model.SurveyResponse) error {
	return GetDB(ctx, r.db).Omit("User").Create(resp).Error
}

func (r *surveyRepository) HasResponded(ctx context.Context, surveyID, userID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.SurveyResponse{}).
		Where("survey_id = ? AND user_id = ?", surveyID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *surveyRepository) ListResponses(ctx context.Context, surveyID uuid.UUID, page Page) ([]model.SurveyResponse, int64, error) {
	var responses []model.SurveyResponse
	var total int64

	query := GetDB(ctx, r.db).Model(&model.SurveyResponse{}).Where("survey_id = ?", surveyID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(query.Preload("Answers").Preload("User").Order("submitted_at DESC")).Find(&responses).Error; err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}
