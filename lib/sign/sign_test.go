package sign

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignRequest(t *testing.T) {
	s := AwsSigner{
		Service:     ServiceServerless,
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentials("AKID", "SECRET", "TOKEN"),
		Now: func() time.Time {
			return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		},
	}
	req, err := http.NewRequest(http.MethodPost, "https://abc.us-east-1.aoss.amazonaws.com/_dashboards/api/console/proxy", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)

	require.NoError(t, s.SignRequest(req))

	auth := req.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKID/20240301/us-east-1/aoss/aws4_request"), auth)
	assert.Contains(t, auth, "x-amz-content-sha256")
	assert.Equal(t, "TOKEN", req.Header.Get("X-Amz-Security-Token"))
	assert.Equal(t, "015abd7f5cc57a2dd94b7590f04ad8084273905ee33ec5cebeae62276a97f862", req.Header.Get("X-Amz-Content-Sha256"))

	// body is still readable after signing
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(body))
}

func TestSignRequestWithoutBody(t *testing.T) {
	s := AwsSigner{
		Service:     ServiceServerless,
		Region:      "eu-west-1",
		Credentials: credentials.NewStaticCredentials("AKID", "SECRET", ""),
	}
	req, err := http.NewRequest(http.MethodGet, "https://abc.eu-west-1.aoss.amazonaws.com/", nil)
	require.NoError(t, err)

	require.NoError(t, s.SignRequest(req))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", req.Header.Get("X-Amz-Content-Sha256"))
	assert.NotEmpty(t, req.Header.Get("Authorization"))
}
