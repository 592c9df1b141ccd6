package predict

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-predictform/pkg/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestClient_PostsJSONBodyInFormOrder(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotType   string
		gotBody   string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"NU_NOTA_MT": 650.5}`))
	})

	result, err := client.Predict(context.Background(), model.NewFormInput("Q006", "B", "Q002", "E"))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if gotPath != "/predict" {
		t.Fatalf("expected /predict, got %s", gotPath)
	}
	if gotType != "application/json" {
		t.Fatalf("expected application/json, got %q", gotType)
	}
	if gotBody != `{"Q006":"B","Q002":"E"}` {
		t.Fatalf("unexpected body %s", gotBody)
	}
	if got := result.Display(model.KeyMath); got != "650.5" {
		t.Fatalf("expected 650.5, got %q", got)
	}
}

func TestClient_ServerErrorCarriesPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "missing field Q006"}`))
	})

	_, err := client.Predict(context.Background(), model.NewFormInput("Q002", "E"))

	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected *ServerError, got %T (%v)", err, err)
	}
	if serverErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", serverErr.StatusCode)
	}
	if got := serverErr.Message("fallback"); got != "missing field Q006" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestClient_ServerErrorWithoutMessageUsesFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.Predict(context.Background(), model.FormInput{})

	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected *ServerError, got %v", err)
	}
	if got := serverErr.Message("fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestClient_MalformedBodiesAreDecodeErrors(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadGateway} {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`<html>oops</html>`))
		})

		_, err := client.Predict(context.Background(), model.FormInput{})
		if !IsDecode(err) {
			t.Fatalf("status %d: expected decode error, got %v", status, err)
		}
		if IsServer(err) || IsTransport(err) {
			t.Fatalf("status %d: decode error misclassified: %v", status, err)
		}
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	client, err := NewClient(WithBaseURL(base))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Predict(context.Background(), model.NewFormInput("Q006", "B"))
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestNewClient_RequiresAbsoluteBase(t *testing.T) {
	if _, err := NewClient(WithBaseURL("/relative")); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}

func TestClient_URLResolvesEndpoint(t *testing.T) {
	client, err := NewClient(WithBaseURL("http://example.test/app/"), WithEndpoint("predict"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if got := client.URL(); got != "http://example.test/app/predict" {
		t.Fatalf("unexpected url %q", got)
	}

	client, err = NewClient(WithBaseURL("http://example.test/app/"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if got := client.URL(); got != "http://example.test/predict" {
		t.Fatalf("unexpected url %q", got)
	}
}
