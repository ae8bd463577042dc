package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Meta       *Meta       `json:"meta,omitempty"`
	Warning    string      `json:"warning,omitempty"`
	Error      string      `json:"error,omitempty"`
	Field      string      `json:"field,omitempty"`
	Bound      string      `json:"bound,omitempty"`
}

// Meta carries pagination details for list endpoints.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func NewMeta(page, limit int, total int64) *Meta {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return &Meta{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

func Paginated(statusCode int, data interface{}, meta *Meta) Response {
	r := Success(statusCode, data)
	r.Meta = meta
	return r
}

// SuccessWithWarning is a success whose side effects partially failed.
func SuccessWithWarning(statusCode int, data interface{}, warning string) Response {
	r := Success(statusCode, data)
	r.Warning = warning
	return r
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FieldError reports which input field failed and the bound it violated.
func FieldError(statusCode int, err, field, bound string) Response {
	r := Error(statusCode, err)
	r.Field = field
	r.Bound = bound
	return r
}
