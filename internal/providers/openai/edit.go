package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const (
	defaultEditModel = "gpt-image-1"
	defaultEditSize  = "1024x1024"
)

// EditRequest is a single-image edit through POST /images/edits.
type EditRequest struct {
	Model    string
	Prompt   string
	Size     string
	Image    []byte
	MIME     string
	Filename string
}

type imagesResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// EditImage uploads the image with the prompt and returns the decoded bytes of
// the first result.
func (c *Client) EditImage(ctx context.Context, req EditRequest) ([]byte, error) {
	if len(req.Image) == 0 {
		return nil, errors.New("image is required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = defaultEditModel
	}
	size := strings.TrimSpace(req.Size)
	if size == "" {
		size = defaultEditSize
	}
	filename := req.Filename
	if filename == "" {
		filename = "image.png"
	}
	mimeType := req.MIME
	if mimeType == "" {
		mimeType = "image/png"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, value := range map[string]string{"model": model, "prompt": req.Prompt, "size": size} {
		if err := mw.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", field, err)
		}
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/edits", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var out imagesResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return nil, errors.New("no image returned in response")
	}
	data, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return data, nil
}
