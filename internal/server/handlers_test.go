package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	ts := newTestServer(t, Deps{})

	rec := ts.do(http.MethodPost, "/decisions", outdoorJSON, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeJSON(t, rec)
	assert.Equal(t, []any{"mobile"}, body["platforms"])
	assert.Equal(t, "mobile-first", body["priority"])
	assert.Equal(t, map[string]any{"web": 30.0, "mobile": 145.0}, body["scores"])
}

func TestDecide_Markdown(t *testing.T) {
	ts := newTestServer(t, Deps{})

	rec := ts.do(http.MethodPost, "/decisions?format=markdown", outdoorJSON, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Platform Decision"))
}

func TestDecide_InvalidBodies(t *testing.T) {
	ts := newTestServer(t, Deps{})

	tests := []struct {
		name        string
		body        string
		wantDetails bool
	}{
		{"not json", "{", false},
		{"empty", "", false},
		{"missing sections", `{"user": {}}`, true},
		{"unknown enum", strings.Replace(outdoorJSON, `"budget": "normal"`, `"budget": "infinite"`, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/decisions", tt.body, false)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeJSON(t, rec)
			assert.NotEmpty(t, body["error"])
			if tt.wantDetails {
				assert.NotEmpty(t, body["details"])
			}
		})
	}
}

func TestDecodeFactorRecord(t *testing.T) {
	record, err := decodeFactorRecord([]byte(outdoorJSON))
	require.NoError(t, err)
	assert.Equal(t, 3, record.NativeFeatureCount())

	blank := strings.Replace(outdoorJSON, `"sensors"`, `""`, 1)
	_, err = decodeFactorRecord([]byte(blank))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}
