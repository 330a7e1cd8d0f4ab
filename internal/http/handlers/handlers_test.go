package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productshot/internal/domain"
	"productshot/internal/infra/credentials"
	"productshot/internal/pipeline"
	"productshot/internal/providers/openai"
)

type stubRunner struct {
	result domain.BatchResult
	err    error
	jobs   []pipeline.Job
}

func (s *stubRunner) Run(_ context.Context, job pipeline.Job) (domain.BatchResult, error) {
	s.jobs = append(s.jobs, job)
	return s.result, s.err
}

type stubEditor struct {
	out   []byte
	err   error
	calls int
	last  openai.EditRequest
}

func (s *stubEditor) EditImage(_ context.Context, req openai.EditRequest) ([]byte, error) {
	s.calls++
	s.last = req
	return s.out, s.err
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestUsage(t *testing.T) {
	app := NewApp(AppOptions{})
	rec := httptest.NewRecorder()
	app.Usage(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, usageText, body["usage"])
	assert.Equal(t, "Use image_url (public) for fastest performance.", body["hint"])
}

func TestEnhanceSuccess(t *testing.T) {
	run := &stubRunner{result: domain.BatchResult{
		Success: true,
		Images:  []domain.GeneratedImage{{Prompt: "p1", Data: []byte{1}, MIME: "image/png"}},
	}}
	app := NewApp(AppOptions{Pipeline: run})

	rec := postJSON(t, app.Enhance, `{"image_url":"https://cdn.test/a.jpg","number_of_images":"2","callback_url":" https://cb.test ","product_id":"p-1","auth_token":"t","product_price":9.99}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	images := body["generated_images"].([]any)
	require.Len(t, images, 1)
	assert.Equal(t, "data:image/png;base64,AQ==", images[0].(map[string]any)["image"])

	require.Len(t, run.jobs, 1)
	job := run.jobs[0]
	assert.Equal(t, 2, job.Count)
	assert.Equal(t, "https://cdn.test/a.jpg", job.Input.URL)
	assert.Equal(t, "https://cb.test", job.CallbackURL)
	assert.Equal(t, "p-1", job.Passthrough.ProductID)
	assert.Equal(t, 9.99, job.Passthrough.ProductPrice)
}

func TestEnhanceEmptySuccessEncodesArray(t *testing.T) {
	app := NewApp(AppOptions{Pipeline: &stubRunner{result: domain.BatchResult{Success: true}}})
	rec := postJSON(t, app.Enhance, `{"image_url":"https://cdn.test/a.jpg"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"generated_images":[]`)
}

func TestEnhanceDefaultsImageCount(t *testing.T) {
	run := &stubRunner{result: domain.BatchResult{Success: true}}
	app := NewApp(AppOptions{Pipeline: run})
	postJSON(t, app.Enhance, `{"image_url":"https://cdn.test/a.jpg","number_of_images":null}`)
	postJSON(t, app.Enhance, `{"image_url":"https://cdn.test/a.jpg"}`)
	require.Len(t, run.jobs, 2)
	assert.Equal(t, 3, run.jobs[0].Count)
	assert.Equal(t, 3, run.jobs[1].Count)
}

func TestEnhanceImageCountValidation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{name: "zero", value: `0`, want: "number_of_images must be 1..6"},
		{name: "seven", value: `7`, want: "number_of_images must be 1..6"},
		{name: "negative_string", value: `"-1"`, want: "number_of_images must be 1..6"},
		{name: "word", value: `"three"`, want: "number_of_images must be an integer"},
		{name: "fraction", value: `2.5`, want: "number_of_images must be an integer"},
		{name: "bool", value: `true`, want: "number_of_images must be an integer"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			run := &stubRunner{}
			app := NewApp(AppOptions{Pipeline: run})
			rec := postJSON(t, app.Enhance, `{"image_url":"https://cdn.test/a.jpg","number_of_images":`+tc.value+`}`)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["error"] != "validation_error" || body["message"] != tc.want {
				t.Fatalf("body = %v", body)
			}
			if len(run.jobs) != 0 {
				t.Fatal("pipeline must not run")
			}
		})
	}
}

func TestEnhanceRejectsBadBodies(t *testing.T) {
	app := NewApp(AppOptions{Pipeline: &stubRunner{}})

	rec := postJSON(t, app.Enhance, `{"image_url":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", decodeBody(t, rec)["message"])

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`image_url=x`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	app.Enhance(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "unsupported_media_type", decodeBody(t, rec)["error"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"image_url":"https://x"}`))
	rec = httptest.NewRecorder()
	app.Enhance(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "missing Content-Type is accepted")
}

func TestEnhanceErrorEnvelopes(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		trace     bool
		status    int
		category  string
		wantTrace bool
	}{
		{name: "validation", err: domain.ValidationErr(domain.ErrMissingImage), status: 400, category: "validation_error"},
		{name: "configuration", err: domain.Configuration(domain.ErrMissingAPIKey), trace: true, status: 500, category: "configuration_error"},
		{name: "planning_with_trace", err: domain.Planning("planner request failed", errors.New("boom")), trace: true, status: 500, category: "pipeline_failed", wantTrace: true},
		{name: "planning_without_trace", err: domain.Planning("planner request failed", errors.New("boom")), status: 500, category: "pipeline_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := NewApp(AppOptions{Pipeline: &stubRunner{err: tc.err}, ExposeTrace: tc.trace})
			rec := postJSON(t, app.Enhance, `{"image_url":"https://cdn.test/a.jpg"}`)
			require.Equal(t, tc.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tc.category, body["error"])
			assert.Equal(t, tc.err.Error(), body["message"])
			_, hasTrace := body["trace"]
			assert.Equal(t, tc.wantTrace, hasTrace)
		})
	}
}

func TestConfigurationMessageNamesKey(t *testing.T) {
	app := NewApp(AppOptions{Pipeline: &stubRunner{err: credentials.NewStore("", "", false).Check()}})
	rec := postJSON(t, app.Enhance, `{"image_url":"https://cdn.test/a.jpg"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "OPENAI_API_KEY")
}

func TestFakeDisabledByDefault(t *testing.T) {
	app := NewApp(AppOptions{})
	rec := postJSON(t, app.Fake, `{"image_url":"https://cdn.test/a.jpg"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func multipartRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		part, err := mw.CreateFormFile("image", "shot.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/edit", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nrest")

func TestEditSuccess(t *testing.T) {
	editor := &stubEditor{out: pngBytes}
	app := NewApp(AppOptions{Editor: editor, EditModel: "gpt-image-1", Credentials: credentials.NewStore("sk-test", "", false)})

	rec := httptest.NewRecorder()
	app.Edit(rec, multipartRequest(t, map[string]string{"prompt": "studio light"}, []byte("\xff\xd8\xffjpeg")))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, rec.Body.Bytes())
	assert.Equal(t, "studio light", editor.last.Prompt)
	assert.Equal(t, "gpt-image-1", editor.last.Model)
	assert.Equal(t, "shot.png", editor.last.Filename)
}

func TestEditRejections(t *testing.T) {
	cases := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		limit  int
		status int
	}{
		{
			name: "json_body",
			req: func(t *testing.T) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/api/edit", strings.NewReader(`{}`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			status: http.StatusUnsupportedMediaType,
		},
		{
			name: "missing_prompt",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, nil, pngBytes)
			},
			status: http.StatusBadRequest,
		},
		{
			name: "missing_image",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{"prompt": "x"}, nil)
			},
			status: http.StatusBadRequest,
		},
		{
			name: "empty_image",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{"prompt": "x"}, []byte{})
			},
			status: http.StatusBadRequest,
		},
		{
			name: "too_large",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{"prompt": "x"}, bytes.Repeat([]byte{1}, 64))
			},
			limit:  32,
			status: http.StatusRequestEntityTooLarge,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			editor := &stubEditor{out: pngBytes}
			app := NewApp(AppOptions{Editor: editor, EditMaxBytes: tc.limit})
			rec := httptest.NewRecorder()
			app.Edit(rec, tc.req(t))
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Zero(t, editor.calls)
		})
	}
}

func TestEditCredentialCheck(t *testing.T) {
	editor := &stubEditor{out: pngBytes}
	app := NewApp(AppOptions{Editor: editor, Credentials: credentials.NewStore("bad", "", false)})
	rec := httptest.NewRecorder()
	app.Edit(rec, multipartRequest(t, map[string]string{"prompt": "x"}, pngBytes))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "configuration_error", decodeBody(t, rec)["error"])
	assert.Zero(t, editor.calls)
}

func TestEditUpstreamFailure(t *testing.T) {
	app := NewApp(AppOptions{Editor: &stubEditor{err: errors.New("openai status 500")}})
	rec := httptest.NewRecorder()
	app.Edit(rec, multipartRequest(t, map[string]string{"prompt": "x"}, pngBytes))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "pipeline_failed", decodeBody(t, rec)["error"])
}

func TestOpenAPIJSONIsValid(t *testing.T) {
	app := NewApp(AppOptions{})
	rec := httptest.NewRecorder()
	app.OpenAPIJSON(rec, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["paths"], "/api/edit")
}

func TestOpenAPIJSONRevalidates(t *testing.T) {
	app := NewApp(AppOptions{})
	rec := httptest.NewRecorder()
	app.OpenAPIJSON(rec, httptest.NewRequest(http.MethodGet, OpenAPIPath, nil))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, OpenAPIPath, nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	app.OpenAPIJSON(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestOpenAPIDocsPointsAtDocument(t *testing.T) {
	rec := httptest.NewRecorder()
	NewApp(AppOptions{}).OpenAPIDocs(rec, httptest.NewRequest(http.MethodGet, "/v1/docs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `spec-url="/v1/openapi.json"`)
}
