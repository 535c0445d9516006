package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeAlreadyExported))
	assert.Equal(t, http.StatusTooManyRequests, GetHTTPStatus(ErrCodeQueueFull))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("ERR_NO_SUCH_CODE"))
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeAlreadyExported, NormalizeErrorCode("ALREADY_EXPORTED"))
	assert.Equal(t, ErrCodeValidation, NormalizeErrorCode("INVALID_TITLE"))

	// Already-normalized and unknown codes pass through
	assert.Equal(t, ErrCodeInternal, NormalizeErrorCode(ErrCodeInternal))
	assert.Equal(t, "SOMETHING_ELSE", NormalizeErrorCode("SOMETHING_ELSE"))
}
