package openai

import (
	"errors"
	"net/http"
	"testing"

	"github.com/strideloop/fitadvisor-backend/internal/domain/providers"
	"github.com/strideloop/fitadvisor-backend/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&config.OpenAIConfig{})
	assert.Error(t, err)

	client, err := NewClient(&config.OpenAIConfig{APIKey: "sk-test"})
	assert.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", client.Model())
}

func TestClassifyAPIError_Quota(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"status 429", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`},
		{"insufficient_quota type", http.StatusBadRequest, `{"error":{"type":"insufficient_quota","message":"out of credits"}}`},
		{"insufficient_quota code", http.StatusBadRequest, `{"error":{"code":"insufficient_quota"}}`},
		{"rate_limit_exceeded code", http.StatusBadRequest, `{"error":{"code":"rate_limit_exceeded"}}`},
		{"quota_exceeded code", http.StatusBadRequest, `{"error":{"code":"quota_exceeded"}}`},
		{"429 with unparseable body", http.StatusTooManyRequests, `<html>too many requests</html>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyAPIError(tc.status, []byte(tc.body))
			assert.True(t, errors.Is(err, providers.ErrQuotaExceeded))
		})
	}
}

func TestClassifyAPIError_Unauthorized(t *testing.T) {
	err := classifyAPIError(http.StatusUnauthorized, []byte(`{"error":{"message":"bad key"}}`))
	assert.True(t, errors.Is(err, providers.ErrModelUnauthorized))

	err = classifyAPIError(http.StatusForbidden, nil)
	assert.True(t, errors.Is(err, providers.ErrModelUnauthorized))
}

func TestClassifyAPIError_OtherErrorsNotQuota(t *testing.T) {
	err := classifyAPIError(http.StatusInternalServerError, []byte(`{"error":{"message":"server blew up","type":"server_error"}}`))
	assert.False(t, errors.Is(err, providers.ErrQuotaExceeded))
	assert.Contains(t, err.Error(), "server blew up")

	err = classifyAPIError(http.StatusBadRequest, []byte(`{"error":{"message":"bad prompt","type":"invalid_request_error"}}`))
	assert.False(t, errors.Is(err, providers.ErrQuotaExceeded))
}
