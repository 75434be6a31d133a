package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}

func setupMockEmbeddingServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/embed/face", handler)
	return httptest.NewServer(mux)
}

func TestDetectFaces_ParsesFaces(t *testing.T) {
	server := setupMockEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" {
			http.Error(w, "bad content type "+ct, http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"faces_count": 2,
			"model":       "buffalo_l",
			"faces": []map[string]any{
				{"face_index": 0, "dim": 3, "embedding": []float32{0.1, 0.2, 0.3}, "bbox": []float64{1, 2, 3, 4}, "det_score": 0.9},
				{"face_index": 1, "dim": 3, "embedding": []float32{0.4, 0.5, 0.6}, "bbox": []float64{5, 6, 7, 8}, "det_score": 0.8},
			},
		})
	})
	defer server.Close()

	client := NewClient(server.URL + "/")
	detections, err := client.DetectFaces(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}

	if len(detections) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(detections))
	}
	if detections[0].Index != 0 || detections[1].Index != 1 {
		t.Errorf("expected detections in server order, got %d, %d", detections[0].Index, detections[1].Index)
	}
	if len(detections[1].Encoding) != 3 || detections[1].Encoding[0] != 0.4 {
		t.Errorf("unexpected encoding %v", detections[1].Encoding)
	}
	if detections[0].Score != 0.9 {
		t.Errorf("expected det_score 0.9, got %v", detections[0].Score)
	}
}

func TestDetectFaces_NoFaces(t *testing.T) {
	server := setupMockEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"faces_count": 0, "faces": [], "model": "buffalo_l"}`))
	})
	defer server.Close()

	detections, err := NewClient(server.URL).DetectFaces(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}
	if len(detections) != 0 {
		t.Errorf("expected no detections, got %d", len(detections))
	}
}

func TestDetectFaces_SkipsEmptyEncodings(t *testing.T) {
	server := setupMockEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"faces_count": 2, "faces": [{"face_index": 0, "embedding": []}, {"face_index": 1, "embedding": [1, 0]}]}`))
	})
	defer server.Close()

	detections, err := NewClient(server.URL).DetectFaces(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}
	if len(detections) != 1 || detections[0].Index != 1 {
		t.Errorf("expected only the face with an encoding, got %+v", detections)
	}
}

func TestDetectFaces_ServerError(t *testing.T) {
	server := setupMockEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	})
	defer server.Close()

	_, err := NewClient(server.URL).DetectFaces(context.Background(), jpegHeader)
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("expected status in error, got '%v'", err)
	}
}

func TestDetectFaces_InvalidJSON(t *testing.T) {
	server := setupMockEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	defer server.Close()

	if _, err := NewClient(server.URL).DetectFaces(context.Background(), jpegHeader); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewClient_DefaultURL(t *testing.T) {
	if got := NewClient("").BaseURL(); got != "http://localhost:8000" {
		t.Errorf("expected default URL, got '%s'", got)
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", jpegHeader, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"bmp", []byte{0x42, 0x4D, 0, 0, 0, 0, 0, 0}, "image/bmp"},
		{"short", []byte{0xFF, 0xD8}, "application/octet-stream"},
		{"unknown", []byte{1, 2, 3, 4, 5, 6, 7, 8}, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMIMEType(tt.data); got != tt.want {
				t.Errorf("DetectMIMEType() = %q, want %q", got, tt.want)
			}
		})
	}
}
