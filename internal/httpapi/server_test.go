package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rubenlestaa/ideabank/internal/decode"
	"github.com/rubenlestaa/ideabank/internal/engine"
	"github.com/rubenlestaa/ideabank/internal/oracle"
	"github.com/rubenlestaa/ideabank/internal/tree"
)

type fakeProcessor struct {
	results []engine.Result
	tree    tree.Tree
	err     error
	note    string
	locale  string
}

func (f *fakeProcessor) ProcessNote(_ context.Context, note, locale string) ([]engine.Result, error) {
	f.note = note
	f.locale = locale
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeProcessor) Tree(context.Context) (tree.Tree, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tree, nil
}

func newTestServer(t *testing.T, p Processor) *Server {
	t.Helper()
	s, err := NewServer(p, zap.NewNop(), nil)
	require.NoError(t, err)
	return s
}

func postNote(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(nil, zap.NewNop(), nil)
	assert.Error(t, err)

	_, err = NewServer(&fakeProcessor{}, nil, nil)
	assert.Error(t, err)
}

func TestHandleNote_Success(t *testing.T) {
	remindAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := &fakeProcessor{results: []engine.Result{
		{Action: tree.ActionAdd, MakesSense: true, Group: "compras", Idea: "pan", IsNewGroup: true},
		{Action: tree.ActionRemind, MakesSense: true, Idea: "llamar al dentista", RemindAt: &remindAt},
	}}
	s := newTestServer(t, p)

	rec := postNote(t, s, `{"note": "comprar pan", "locale": "es"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp NoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, tree.ActionAdd, resp.Results[0].Action)
	assert.Equal(t, "pan", resp.Results[0].Idea)

	assert.Equal(t, "comprar pan", p.note)
	assert.Equal(t, "es", p.locale)
}

func TestHandleNote_BadRequest(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	rec := postNote(t, s, `{"note": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postNote(t, s, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestHandleNote_DecodeFailureIs422 maps an undecodable classifier
// response to 422: retrying the same note may well succeed.
func TestHandleNote_DecodeFailureIs422(t *testing.T) {
	p := &fakeProcessor{err: &decode.DecodeError{Raw: "garbage"}}
	s := newTestServer(t, p)

	rec := postNote(t, s, `{"note": "comprar pan"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// TestHandleNote_UnavailableIs502 verifies the degraded path response
// tells the caller the note was kept.
func TestHandleNote_UnavailableIs502(t *testing.T) {
	p := &fakeProcessor{err: fmt.Errorf("%w: connection refused", oracle.ErrUnavailable)}
	s := newTestServer(t, p)

	rec := postNote(t, s, `{"note": "comprar pan"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Stored)
}

func TestHandleTree(t *testing.T) {
	p := &fakeProcessor{tree: tree.Tree{{
		Name:  "compras",
		Ideas: []string{"pan"},
		Subgroups: []tree.Subgroup{
			{Name: "super", Ideas: []string{"detergente"}},
		},
	}}}
	s := newTestServer(t, p)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tree", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TreeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "compras", resp.Groups[0].Name)
	assert.Equal(t, "super", resp.Groups[0].Subgroups[0].Name)
}

func TestHandleTree_EmptyIsList(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tree", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"groups":[]`)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
