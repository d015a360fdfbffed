package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/effectlab/video-effect-detector/internal/core/domain"
	"github.com/effectlab/video-effect-detector/internal/infrastructure/resilience"
)

// Client talks to the Generative Language REST API: media uploads, file
// state lookups and content generation against an uploaded video.
type Client struct {
	baseURL       string
	apiKey        string
	model         string
	fallbackModel string
	httpClient    *http.Client
	executor      *resilience.Executor
}

type Options struct {
	FallbackModel      string
	HTTPTimeout        time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey, model string, options Options) *Client {
	timeout := options.HTTPTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		model:         model,
		fallbackModel: options.FallbackModel,
		httpClient:    &http.Client{Timeout: timeout},
		executor:      options.ResilienceExecutor,
	}
}

type fileResource struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	State    string `json:"state"`
}

func (f fileResource) toDomain() domain.RemoteFile {
	return domain.RemoteFile{
		Name:     f.Name,
		URI:      f.URI,
		MIMEType: f.MIMEType,
		State:    domain.RemoteFileState(f.State),
	}
}

// UploadFile submits a local video via the multipart media upload
// endpoint. The returned file usually starts in PROCESSING.
func (c *Client) UploadFile(ctx context.Context, path, mimeType string) (domain.RemoteFile, error) {
	var uploaded fileResource
	call := func(ctx context.Context) error {
		return c.uploadOnce(ctx, path, mimeType, &uploaded)
	}

	if err := c.execute(ctx, "gemini.upload_file", call); err != nil {
		return domain.RemoteFile{}, err
	}
	return uploaded.toDomain(), nil
}

func (c *Client) uploadOnce(ctx context.Context, path, mimeType string, out *fileResource) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open staged video: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadBody(mw, f, filepath.Base(path), mimeType))
	}()

	url := c.baseURL + "/upload/v1beta/files?uploadType=multipart"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newHTTPStatusError("upload", resp)
	}

	var body struct {
		File fileResource `json:"file"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode upload response: %w", err)
	}
	*out = body.File
	return nil
}

func writeUploadBody(mw *multipart.Writer, media io.Reader, displayName, mimeType string) error {
	metaPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"application/json; charset=UTF-8"},
	})
	if err != nil {
		return err
	}
	meta := map[string]any{
		"file": map[string]any{"display_name": displayName},
	}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return err
	}

	mediaPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {mimeType},
	})
	if err != nil {
		return err
	}
	if _, err := io.Copy(mediaPart, media); err != nil {
		return err
	}
	return mw.Close()
}

// GetFile re-fetches the file resource to observe its current state.
func (c *Client) GetFile(ctx context.Context, name string) (domain.RemoteFile, error) {
	var file fileResource
	call := func(ctx context.Context) error {
		return c.getJSON(ctx, "/v1beta/"+name, &file, "get_file")
	}

	if err := c.execute(ctx, "gemini.get_file", call); err != nil {
		return domain.RemoteFile{}, err
	}
	return file.toDomain(), nil
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

// GenerateContent asks the model to classify the referenced video. When
// the primary model is unknown to the API the configured fallback model
// is tried once. The second return value is the variant that actually
// answered, taken from the response when the API reports it.
func (c *Client) GenerateContent(ctx context.Context, prompt string, file domain.RemoteFile) (string, string, error) {
	text, modelUsed, err := c.generateWithModel(ctx, c.model, prompt, file)
	if err != nil && c.fallbackModel != "" && isModelNotFound(err) {
		return c.generateWithModel(ctx, c.fallbackModel, prompt, file)
	}
	return text, modelUsed, err
}

func (c *Client) generateWithModel(ctx context.Context, model, prompt string, file domain.RemoteFile) (string, string, error) {
	request := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": prompt},
					{"file_data": map[string]any{
						"mime_type": file.MIMEType,
						"file_uri":  file.URI,
					}},
				},
			},
		},
	}

	var response generateContentResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1beta/models/"+model+":generateContent", request, &response, "generate")
	}
	if err := c.execute(ctx, "gemini.generate", call); err != nil {
		return "", "", err
	}

	text := completionText(response)
	if text == "" {
		return "", "", fmt.Errorf("gemini generate: empty completion for model %s", model)
	}

	modelUsed := response.ModelVersion
	if modelUsed == "" {
		modelUsed = model
	}
	return text, modelUsed, nil
}

func completionText(response generateContentResponse) string {
	if len(response.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}

func isModelNotFound(err error) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}
