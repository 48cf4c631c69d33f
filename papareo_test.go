package papareo_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"papareo"
	"papareo/pkg/papareotest"
)

var audio = []byte("RIFF\x24\x00\x00\x00WAVEfmt ")

func startFake(t *testing.T, fake *papareotest.Server) string {
	t.Helper()
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func newFakeClient(t *testing.T) (*papareo.Client, *papareotest.Server) {
	t.Helper()
	fake := papareotest.New()
	fake.Token = "secret"
	url := startFake(t, fake)
	client := papareo.New(http.DefaultClient, &papareo.Config{URL: url, Token: "secret"})
	return client, fake
}

func TestTranscribeUtterance(t *testing.T) {
	assert := require.New(t)

	client, fake := newFakeClient(t)

	text, err := client.TranscribeUtterance(context.Background(), bytes.NewReader(audio))
	assert.NoError(err)
	assert.Equal(fake.Transcription, text)
}

func TestTranscribeWithMetadata(t *testing.T) {
	assert := require.New(t)

	client, _ := newFakeClient(t)

	result, err := client.Transcribe(context.Background(), bytes.NewReader(audio), true)
	assert.NoError(err)
	assert.True(result.Success)
	assert.NotEmpty(result.Transcription)
	assert.NotEmpty(result.Metadata)
}

func TestTranscribeBadToken(t *testing.T) {
	assert := require.New(t)

	fake := papareotest.New()
	fake.Token = "secret"
	url := startFake(t, fake)
	client := papareo.New(http.DefaultClient, &papareo.Config{URL: url, Token: "wrong"})

	_, err := client.TranscribeUtterance(context.Background(), bytes.NewReader(audio))
	assert.ErrorIs(err, papareo.ErrTranscribeFailed)

	var apiErr *papareo.APIError
	assert.ErrorAs(err, &apiErr)
	assert.Equal(http.StatusForbidden, apiErr.StatusCode)
	assert.NotEmpty(apiErr.Detail)
}

func TestTokenFromEnvironment(t *testing.T) {
	assert := require.New(t)

	fake := papareotest.New()
	fake.Token = "env-token"
	url := startFake(t, fake)

	t.Setenv(papareo.TokenEnvVar, "env-token")
	client := papareo.New(http.DefaultClient, &papareo.Config{URL: url})
	assert.True(client.HasToken())

	_, err := client.TranscribeUtterance(context.Background(), bytes.NewReader(audio))
	assert.NoError(err)
}

func TestTokenConfigOverridesEnvironment(t *testing.T) {
	assert := require.New(t)

	fake := papareotest.New()
	fake.Token = "config-token"
	url := startFake(t, fake)

	t.Setenv(papareo.TokenEnvVar, "env-token")
	client := papareo.New(http.DefaultClient, &papareo.Config{URL: url, Token: "config-token"})

	_, err := client.TranscribeUtterance(context.Background(), bytes.NewReader(audio))
	assert.NoError(err)
}

func TestSetTokenBlankIsNoOp(t *testing.T) {
	assert := require.New(t)

	client, _ := newFakeClient(t)

	client.SetToken("")
	assert.True(client.HasToken())

	_, err := client.TranscribeUtterance(context.Background(), bytes.NewReader(audio))
	assert.NoError(err)
}

func TestNoToken(t *testing.T) {
	assert := require.New(t)

	t.Setenv(papareo.TokenEnvVar, "")
	client := papareo.New(http.DefaultClient, &papareo.Config{})
	assert.False(client.HasToken())

	client.SetToken("later")
	assert.True(client.HasToken())
}

func TestTransportErrorIsWrapped(t *testing.T) {
	assert := require.New(t)

	fake := papareotest.New()
	ts := httptest.NewServer(fake.Handler())
	url := ts.URL
	ts.Close()

	client := papareo.New(http.DefaultClient, &papareo.Config{URL: url, Token: "secret"})

	_, err := client.TranscribeUtterance(context.Background(), bytes.NewReader(audio))
	assert.Error(err)

	var apiErr *papareo.APIError
	assert.False(errors.As(err, &apiErr))
}
