package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMockServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var status int
	err := RunMockServer(ctx, MockServerConfig{
		Addr:  "127.0.0.1:0",
		Users: map[string]string{"alice": "s3cret!"},
		Ready: func(baseURL string) {
			defer cancel()
			resp, err := http.Get(baseURL + "/protected/")
			if err != nil {
				return
			}
			resp.Body.Close()
			status = resp.StatusCode
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)
}
