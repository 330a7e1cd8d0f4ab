package openai

import (
	"context"
	"strings"
)

const imageGenerationCall = "image_generation_call"

// ResponseRequest is a call to the Responses API.
type ResponseRequest struct {
	Model string          `json:"model"`
	Input []ResponseInput `json:"input"`
	Tools []ResponseTool  `json:"tools,omitempty"`
}

type ResponseInput struct {
	Role    string            `json:"role"`
	Content []ResponseContent `json:"content"`
}

type ResponseContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type ResponseTool struct {
	Type string `json:"type"`
}

// Response is the subset of the Responses API result used here.
type Response struct {
	ID     string               `json:"id"`
	Output []ResponseOutputItem `json:"output"`
}

type ResponseOutputItem struct {
	Type    string `json:"type"`
	Status  string `json:"status,omitempty"`
	Result  string `json:"result,omitempty"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content,omitempty"`
}

// UserInput builds the single user turn of text plus one image.
func UserInput(text, urlOrDataURL string) []ResponseInput {
	return []ResponseInput{{
		Role: "user",
		Content: []ResponseContent{
			{Type: "input_text", Text: text},
			{Type: "input_image", ImageURL: urlOrDataURL},
		},
	}}
}

// CreateResponse calls POST /responses.
func (c *Client) CreateResponse(ctx context.Context, req ResponseRequest) (*Response, error) {
	var out Response
	if err := c.postJSON(ctx, "/responses", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OutputText concatenates the output_text parts of all message items.
func (r *Response) OutputText() string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	for _, item := range r.Output {
		for _, part := range item.Content {
			if part.Type != "output_text" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// ImageResults returns the base64 payloads of image_generation_call items, in
// output order.
func (r *Response) ImageResults() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, item := range r.Output {
		if item.Type == imageGenerationCall && item.Result != "" {
			out = append(out, item.Result)
		}
	}
	return out
}
