package songid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/rewind/internal/audio"
)

func testClient(t *testing.T) *AudDClient {
	t.Helper()

	cfg := DefaultConfig("test-token")
	format := audio.DefaultConfig()
	format.WindowSeconds = 1

	client, err := NewAudDClient(cfg, format)
	require.NoError(t, err)

	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	return client
}

func testPCM() []byte {
	return make([]byte, 2048)
}

func TestAudDRequiresToken(t *testing.T) {
	_, err := NewAudDClient(Config{}, audio.DefaultConfig())
	assert.Error(t, err)
}

func TestAudDRecognizeSuccess(t *testing.T) {
	client := testClient(t)

	httpmock.RegisterResponder(http.MethodPost, client.config.Endpoint,
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseMultipartForm(16<<20))
			assert.Equal(t, "test-token", req.FormValue("api_token"))

			file, header, err := req.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.True(t, strings.HasSuffix(header.Filename, ".wav"))

			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"status": "success",
				"result": map[string]any{
					"artist":       "Daft Punk",
					"title":        "Harder, Better, Faster, Stronger",
					"album":        "Discovery",
					"release_date": "2001-03-12",
					"label":        "Virgin",
					"timecode":     "01:07",
					"song_link":    "https://lis.tn/exampletrack",
				},
			})
		})

	match, err := client.Recognize(context.Background(), testPCM())
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "Daft Punk", match.Artist)
	assert.Equal(t, "Harder, Better, Faster, Stronger", match.Title)
	assert.Equal(t, "Discovery", match.Album)
	assert.Equal(t, "01:07", match.Timecode)
	assert.Equal(t, "Daft Punk Harder, Better, Faster, Stronger", match.Query())
}

func TestAudDRecognizeNoMatch(t *testing.T) {
	client := testClient(t)

	httpmock.RegisterResponder(http.MethodPost, client.config.Endpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"status":"success","result":null}`))

	match, err := client.Recognize(context.Background(), testPCM())
	assert.Nil(t, match)
	assert.True(t, errors.Is(err, ErrNoMatch))
}

func TestAudDRecognizeServiceError(t *testing.T) {
	client := testClient(t)

	body, _ := json.Marshal(map[string]any{
		"status": "error",
		"error": map[string]any{
			"error_code":    901,
			"error_message": "Recognition failed: no api_token",
		},
	})
	httpmock.RegisterResponder(http.MethodPost, client.config.Endpoint,
		httpmock.NewStringResponder(http.StatusOK, string(body)))

	_, err := client.Recognize(context.Background(), testPCM())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "901")
	assert.False(t, errors.Is(err, ErrNoMatch))
}

func TestAudDRecognizeHTTPFailure(t *testing.T) {
	client := testClient(t)

	httpmock.RegisterResponder(http.MethodPost, client.config.Endpoint,
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"))

	_, err := client.Recognize(context.Background(), testPCM())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestMatchString(t *testing.T) {
	m := &Match{Artist: "Boards of Canada", Title: "Roygbiv"}
	assert.Equal(t, "Boards of Canada - Roygbiv", m.String())

	instrumental := &Match{Title: "Unknown Broadcast"}
	assert.Equal(t, "Unknown Broadcast", instrumental.String())
}
