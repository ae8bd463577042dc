package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestSurveyResponseUniquePerUser(t *testing.T) {
	s, err := schema.Parse(&SurveyResponse{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	for _, col := range []string{"survey_id", "user_id"} {
		f := s.LookUpField(col)
		require.NotNil(t, f, col)
		assert.Equal(t, "idx_survey_response_user", f.TagSettings["UNIQUEINDEX"], col)
	}
}
