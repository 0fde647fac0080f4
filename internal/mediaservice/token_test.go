package mediaservice_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vodflow/internal/mediaservice"
	"vodflow/internal/services"
)

func TestTokenExchangesClientCredentials(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"grant_type":    r.PostFormValue("grant_type"),
			"client_id":     r.PostFormValue("client_id"),
			"client_secret": r.PostFormValue("client_secret"),
			"resource":      r.PostFormValue("resource"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer"}`))
	}))
	defer server.Close()

	client := mediaservice.New(mediaservice.Options{
		Endpoint:      "https://unused.example.test",
		TokenEndpoint: server.URL,
		ClientID:      "client-a",
		ClientSecret:  "hunter2",
		HTTPClient:    server.Client(),
	})

	token, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "tok-123" {
		t.Fatalf("unexpected token %q", token)
	}
	if gotForm["grant_type"] != "client_credentials" {
		t.Errorf("grant_type = %q", gotForm["grant_type"])
	}
	if gotForm["client_id"] != "client-a" || gotForm["client_secret"] != "hunter2" {
		t.Errorf("credentials not forwarded: %v", gotForm)
	}
	if gotForm["resource"] == "" {
		t.Error("resource field missing from exchange")
	}
}

func TestTokenReportsAuthErrorOnRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := mediaservice.New(mediaservice.Options{
		TokenEndpoint: server.URL,
		HTTPClient:    server.Client(),
	})
	_, err := client.Token(context.Background())
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestTokenReportsAuthErrorOnEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer server.Close()

	client := mediaservice.New(mediaservice.Options{
		TokenEndpoint: server.URL,
		HTTPClient:    server.Client(),
	})
	if _, err := client.Token(context.Background()); !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestTokenRequiresEndpoint(t *testing.T) {
	client := mediaservice.New(mediaservice.Options{})
	if _, err := client.Token(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
