package gemini

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/effectlab/video-effect-detector/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := New(server.URL, "test-key", "gemini-2.0-flash-exp", Options{
		FallbackModel: "gemini-1.5-pro",
	})
	return client, server
}

func writeTempVideo(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp video: %v", err)
	}
	return path
}

func TestUploadFile(t *testing.T) {
	var gotKey, gotMediaBody string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload/v1beta/files" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotKey = r.Header.Get("x-goog-api-key")

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/related" {
			t.Fatalf("expected multipart/related content type, got %q (%v)", r.Header.Get("Content-Type"), err)
		}
		reader := multipart.NewReader(r.Body, params["boundary"])

		metaPart, err := reader.NextPart()
		if err != nil {
			t.Fatalf("read metadata part: %v", err)
		}
		var meta struct {
			File struct {
				DisplayName string `json:"display_name"`
			} `json:"file"`
		}
		if err := json.NewDecoder(metaPart).Decode(&meta); err != nil {
			t.Fatalf("decode metadata part: %v", err)
		}
		if meta.File.DisplayName != "clip.mp4" {
			t.Fatalf("unexpected display name %q", meta.File.DisplayName)
		}

		mediaPart, err := reader.NextPart()
		if err != nil {
			t.Fatalf("read media part: %v", err)
		}
		if ct := mediaPart.Header.Get("Content-Type"); ct != "video/mp4" {
			t.Fatalf("unexpected media content type %q", ct)
		}
		media, _ := io.ReadAll(mediaPart)
		gotMediaBody = string(media)

		json.NewEncoder(w).Encode(map[string]any{
			"file": map[string]any{
				"name":     "files/abc",
				"uri":      "https://files.example/abc",
				"mimeType": "video/mp4",
				"state":    "PROCESSING",
			},
		})
	})
	client, _ := newTestClient(t, handler)

	path := writeTempVideo(t, "fake-video-bytes")
	file, err := client.UploadFile(context.Background(), path, "video/mp4")
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotMediaBody != "fake-video-bytes" {
		t.Fatalf("media bytes did not round-trip, got %q", gotMediaBody)
	}
	if file.Name != "files/abc" || file.State != domain.FileStateProcessing {
		t.Fatalf("unexpected file %+v", file)
	}
}

func TestGetFile(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1beta/files/abc" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"name":     "files/abc",
			"uri":      "https://files.example/abc",
			"mimeType": "video/mp4",
			"state":    "ACTIVE",
		})
	})
	client, _ := newTestClient(t, handler)

	file, err := client.GetFile(context.Background(), "files/abc")
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if file.State != domain.FileStateActive {
		t.Fatalf("expected ACTIVE, got %s", file.State)
	}
}

func TestGenerateContentReportsModelVersion(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.0-flash-exp:generateContent" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Contents []struct {
				Parts []map[string]any `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode generate request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Fatalf("expected one content with prompt and file parts, got %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{
					{"text": `{"effect":"crossfade",`},
					{"text": `"confidence":0.9,"description":"d"}`},
				}}},
			},
			"modelVersion": "gemini-2.0-flash-exp-001",
		})
	})
	client, _ := newTestClient(t, handler)

	text, modelUsed, err := client.GenerateContent(context.Background(), "prompt", domain.RemoteFile{
		URI:      "https://files.example/abc",
		MIMEType: "video/mp4",
	})
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if text != `{"effect":"crossfade","confidence":0.9,"description":"d"}` {
		t.Fatalf("unexpected completion %q", text)
	}
	if modelUsed != "gemini-2.0-flash-exp-001" {
		t.Fatalf("expected modelVersion label, got %q", modelUsed)
	}
}

func TestGenerateContentFallsBackOnUnknownModel(t *testing.T) {
	var calls []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		if r.URL.Path == "/v1beta/models/gemini-2.0-flash-exp:generateContent" {
			http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
			return
		}
		if r.URL.Path != "/v1beta/models/gemini-1.5-pro:generateContent" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "ok"}}}},
			},
		})
	})
	client, _ := newTestClient(t, handler)

	text, modelUsed, err := client.GenerateContent(context.Background(), "prompt", domain.RemoteFile{})
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected primary then fallback call, got %v", calls)
	}
	if text != "ok" {
		t.Fatalf("unexpected completion %q", text)
	}
	if modelUsed != "gemini-1.5-pro" {
		t.Fatalf("expected fallback model label, got %q", modelUsed)
	}
}

func TestGenerateContentEmptyCandidates(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})
	client, _ := newTestClient(t, handler)

	_, _, err := client.GenerateContent(context.Background(), "prompt", domain.RemoteFile{})
	if err == nil {
		t.Fatalf("expected error for empty candidates")
	}
}

func TestRetryableStatusWrappedAsTemporary(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	client, _ := newTestClient(t, handler)

	_, err := client.GetFile(context.Background(), "files/abc")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error kind, got %v", err)
	}
}

func TestClientErrorStatusNotTemporary(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})
	client, _ := newTestClient(t, handler)

	_, err := client.GetFile(context.Background(), "files/abc")
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("4xx must not be classified temporary, got %v", err)
	}
}
