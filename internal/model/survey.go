package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Question types
const (
	QuestionAlternative = "ALTERNATIVA"
	QuestionEssay       = "DISSERTATIVA"
	QuestionRating      = "RATING"
)

type Survey struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string           `gorm:"type:varchar(255);not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Active      bool             `gorm:"not null;default:true" json:"is_active"`
	Questions   []SurveyQuestion `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE;" json:"questions"`
	CreatedBy   uuid.UUID        `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type SurveyQuestion struct {
	ID       uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SurveyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"survey_id"`
	Text     string         `gorm:"column:question_text;type:text;not null" json:"question_text"`
	Type     string         `gorm:"type:varchar(20);not null" json:"type"`
	Options  datatypes.JSON `gorm:"type:jsonb" json:"options" swaggertype:"array,string"`
	Required bool           `gorm:"not null;default:false" json:"required"`
	Order    int            `gorm:"column:sort_order;not null" json:"order"`
}

type SurveyResponse struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SurveyID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_survey_response_user" json:"survey_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_survey_response_user;index" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Answers     []SurveyAnswer `gorm:"foreignKey:ResponseID;constraint:OnDelete:CASCADE;" json:"answers"`
	SubmittedAt time.Time      `gorm:"autoCreateTime" json:"submitted_at"`
}

type SurveyAnswer struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ResponseID uuid.UUID `gorm:"type:uuid;not null;index" json:"response_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Value      string    `gorm:"column:answer_text;type:text" json:"answer_text"`
}
