package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petasbytes/pr-agent/internal/github"
)

func TestClient_CreatePullRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/repos/acme/widgets/pulls" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ghp_test" {
			t.Errorf("Authorization = %q", got)
		}
		var in github.NewPullRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode: %v", err)
		}
		if in.Head != "agent/abc" || in.Base != "main" || in.Title != "Add README" {
			t.Errorf("unexpected payload %+v", in)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number":12,"html_url":"https://github.com/acme/widgets/pull/12"}`))
	}))
	defer srv.Close()

	c := github.NewClient(srv.URL, "ghp_test")
	pr, err := c.CreatePullRequest(context.Background(), github.Repo{Owner: "acme", Name: "widgets"},
		github.NewPullRequest{Title: "Add README", Head: "agent/abc", Base: "main"})
	if err != nil {
		t.Fatalf("CreatePullRequest: %v", err)
	}
	if pr.Number != 12 || pr.HTMLURL != "https://github.com/acme/widgets/pull/12" {
		t.Fatalf("unexpected PR %+v", pr)
	}
}

func TestClient_ErrorCarriesAPIMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
	}))
	defer srv.Close()

	c := github.NewClient(srv.URL, "")
	_, err := c.CreatePullRequest(context.Background(), github.Repo{Owner: "a", Name: "b"}, github.NewPullRequest{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "Validation Failed") || !strings.Contains(err.Error(), "422") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestClient_DefaultBranch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/widgets" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"default_branch":"trunk"}`))
	}))
	defer srv.Close()

	got, err := github.NewClient(srv.URL, "").DefaultBranch(context.Background(), github.Repo{Owner: "acme", Name: "widgets"})
	if err != nil || got != "trunk" {
		t.Fatalf("DefaultBranch = %q, %v", got, err)
	}
}
