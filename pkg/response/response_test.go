package response

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMeta(t *testing.T) {
	assert.Equal(t, int64(3), NewMeta(1, 20, 41).TotalPages)
	assert.Equal(t, int64(2), NewMeta(1, 20, 40).TotalPages)
	assert.Equal(t, int64(0), NewMeta(1, 20, 0).TotalPages)
	assert.Equal(t, int64(0), NewMeta(1, 0, 10).TotalPages)
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	b, err := json.Marshal(Success(http.StatusOK, "ok"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","status_code":200,"data":"ok"}`, string(b))

	b, err = json.Marshal(SuccessWithWarning(http.StatusOK, 1, "report not saved"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","status_code":200,"data":1,"warning":"report not saved"}`, string(b))

	b, err = json.Marshal(FieldError(http.StatusBadRequest, "bad", "cnae", "7 digits"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","status_code":400,"error":"bad","field":"cnae","bound":"7 digits"}`, string(b))
}
