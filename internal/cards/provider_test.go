package cards

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPexelsProviderFetchFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "test-key" {
			t.Errorf("Expected Authorization header test-key, got %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "animals" {
			t.Errorf("Expected query animals, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"photos":[
			{"id":101,"src":{"original":"https://images.example/101.jpg"}},
			{"id":102,"src":{"original":"https://images.example/102.jpg"}}
		]}`))
	}))
	defer server.Close()

	provider := NewPexelsProvider("test-key")
	provider.searchURL = server.URL

	faces, err := provider.FetchFaces(context.Background(), "animals")
	if err != nil {
		t.Fatalf("FetchFaces: %v", err)
	}

	if len(faces) != 2 {
		t.Fatalf("Expected 2 faces, got %d", len(faces))
	}
	if faces[0].ID != "101" {
		t.Errorf("Expected face ID 101, got %q", faces[0].ID)
	}
	if faces[1].URL != "https://images.example/102.jpg" {
		t.Errorf("Unexpected face URL %q", faces[1].URL)
	}
}

func TestPexelsProviderUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewPexelsProvider("test-key")
	provider.searchURL = server.URL

	if _, err := provider.FetchFaces(context.Background(), "animals"); err == nil {
		t.Error("Expected error for non-200 response")
	}
}
