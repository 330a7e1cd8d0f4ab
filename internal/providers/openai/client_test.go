package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productshot/internal/domain"
	"productshot/internal/imagegen"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(fn roundTripFunc) *Client {
	return NewClient(Options{
		APIKey:     "sk-test",
		BaseURL:    "https://api.test/v1/",
		HTTPClient: &http.Client{Transport: fn},
	})
}

func TestChatCompletionSendsAuthAndParsesContent(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://api.test/v1/chat/completions", r.URL.String())
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Len(t, req.Messages, 2)
		return jsonResponse(http.StatusOK, `{"choices":[{"message":{"content":"  {\"prompt1\":\"a\"}  "}}]}`), nil
	})

	got, err := client.ChatCompletion(context.Background(), ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []ChatMessage{
			{Role: "system", Content: "json only"},
			{Role: "user", Content: []ChatContentPart{TextPart("hi"), ImagePart("https://x/y.png")}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"prompt1":"a"}`, got)
}

func TestChatCompletionErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		client := newTestClient(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`), nil
		})
		_, err := client.ChatCompletion(context.Background(), ChatRequest{Model: "m"})
		require.Error(t, err)
		assert.True(t, IsStatus(err, http.StatusUnauthorized))
		assert.Contains(t, err.Error(), "bad key")
	})
	t.Run("no choices", func(t *testing.T) {
		client := newTestClient(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"choices":[]}`), nil
		})
		_, err := client.ChatCompletion(context.Background(), ChatRequest{Model: "m"})
		assert.EqualError(t, err, "no choices")
	})
	t.Run("transport", func(t *testing.T) {
		client := newTestClient(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial failed")
		})
		_, err := client.ChatCompletion(context.Background(), ChatRequest{Model: "m"})
		assert.ErrorContains(t, err, "dial failed")
	})
}

func TestResponseHelpers(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(`{
		"id":"resp_1",
		"output":[
			{"type":"message","content":[{"type":"output_text","text":"first"},{"type":"output_text","text":"second"}]},
			{"type":"image_generation_call","status":"completed","result":"QUJD"},
			{"type":"image_generation_call","status":"failed"}
		]}`), &resp))

	assert.Equal(t, "first\nsecond", resp.OutputText())
	assert.Equal(t, []string{"QUJD"}, resp.ImageResults())

	var nilResp *Response
	assert.Empty(t, nilResp.OutputText())
	assert.Nil(t, nilResp.ImageResults())
}

func TestImageSynthesizerReturnsFirstImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		var req ResponseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4.1", req.Model)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "image_generation", req.Tools[0].Type)
		require.Len(t, req.Input, 1)
		content := req.Input[0].Content
		require.Len(t, content, 2)
		assert.Equal(t, "input_text", content[0].Type)
		assert.Contains(t, content[0].Text, "ENHANCEMENT IDEA: on a wooden table")
		assert.Equal(t, "input_image", content[1].Type)
		assert.Equal(t, "https://cdn.test/p.jpg", content[1].ImageURL)
		return jsonResponse(http.StatusOK, `{"output":[{"type":"image_generation_call","result":"`+payload+`"}]}`), nil
	})

	synth := NewImageSynthesizer(client, "")
	img, err := synth.Synthesize(context.Background(), imagegen.Request{
		Prompt:    domain.EnhancementPrompt{Index: 1, Text: "on a wooden table"},
		Reference: domain.ImageReference{URL: "https://cdn.test/p.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "on a wooden table", img.Prompt)
	assert.Equal(t, []byte("png-bytes"), img.Data)
	assert.Equal(t, "image/png", img.MIME)
}

func TestImageSynthesizerNoImageIsSynthesisError(t *testing.T) {
	client := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"output":[{"type":"message","content":[{"type":"output_text","text":"sorry"}]}]}`), nil
	})
	_, err := NewImageSynthesizer(client, "gpt-4.1").Synthesize(context.Background(), imagegen.Request{
		Prompt:    domain.EnhancementPrompt{Index: 1, Text: "x"},
		Reference: domain.ImageReference{Data: []byte{1}, MIME: "image/png"},
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindSynthesis, domain.KindOf(err))
	assert.ErrorIs(t, err, domain.ErrNoImage)
}

func TestEditImageBuildsMultipart(t *testing.T) {
	out := base64.StdEncoding.EncodeToString([]byte("edited"))
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/images/edits", r.URL.Path)
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)

		form, err := multipart.NewReader(r.Body, params["boundary"]).ReadForm(1 << 20)
		require.NoError(t, err)
		assert.Equal(t, []string{"gpt-image-1"}, form.Value["model"])
		assert.Equal(t, []string{"make it pop"}, form.Value["prompt"])
		assert.Equal(t, []string{"1024x1024"}, form.Value["size"])
		require.Len(t, form.File["image"], 1)
		assert.Equal(t, "shot.jpg", form.File["image"][0].Filename)
		return jsonResponse(http.StatusOK, `{"data":[{"b64_json":"`+out+`"}]}`), nil
	})

	data, err := client.EditImage(context.Background(), EditRequest{
		Prompt:   "make it pop",
		Image:    []byte("raw"),
		MIME:     "image/jpeg",
		Filename: "shot.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("edited"), data)
}

func TestEditImageEmptyData(t *testing.T) {
	client := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":[]}`), nil
	})
	_, err := client.EditImage(context.Background(), EditRequest{Prompt: "p", Image: []byte("raw")})
	assert.EqualError(t, err, "no image returned in response")

	_, err = client.EditImage(context.Background(), EditRequest{Prompt: "p"})
	assert.EqualError(t, err, "image is required")
}
