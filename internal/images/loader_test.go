package images

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	data, err := NewLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("data = %q", data)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote-bytes"))
	}))
	defer srv.Close()

	data, err := NewLoader().Load(context.Background(), srv.URL+"/page.jpg")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "remote-bytes" {
		t.Errorf("data = %q", data)
	}
}

func TestLoadFromURLNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := NewLoader().Load(context.Background(), srv.URL+"/gone.jpg"); err == nil {
		t.Error("expected error for HTTP 404")
	}
}

func TestLoadFromDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("inline-bytes"))
	data, err := NewLoader().Load(context.Background(), "data:image/png;base64,"+payload)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "inline-bytes" {
		t.Errorf("data = %q", data)
	}
}

func TestLoadFromDataURIMalformed(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{name: "no comma", uri: "data:image/png;base64"},
		{name: "not base64 encoding", uri: "data:image/png,plain"},
		{name: "bad payload", uri: "data:image/png;base64,%%%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLoader().Load(context.Background(), tt.uri); err == nil {
				t.Error("expected error")
			}
		})
	}
}
