package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Config{Port: 0, SamplesDir: "samples", PianoDir: "piano"})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestProgramList(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/programs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var views []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Implemented bool   `json:"implemented"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) < 5 {
		t.Fatalf("got %d programs", len(views))
	}

	found := false
	for _, v := range views {
		if v.Name == "drums/ambient_01" {
			found = true
			if !v.Implemented {
				t.Error("drums/ambient_01 should be implemented")
			}
		}
	}
	if !found {
		t.Error("drums/ambient_01 missing from listing")
	}
}

func TestProgramStartValidation(t *testing.T) {
	s := newTestServer(t)

	t.Run("UnknownProgram", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/programs/start", `{"program":"drums/nope"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("PlannedProgram", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/programs/start", `{"program":"piano/nocturne_01"}`)
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("status = %d, want 501", rec.Code)
		}
	})

	t.Run("IntensityOutOfRange", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/programs/start", `{"program":"drums/ambient_01","intensity":1.5}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("MalformedBody", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/programs/start", `{"program":`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestJobLookup(t *testing.T) {
	s := newTestServer(t)

	t.Run("StatusNotFound", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/jobs/12345", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("StopNotFound", func(t *testing.T) {
		rec := do(t, s, http.MethodDelete, "/jobs/12345", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("StopKeepsTerminalState", func(t *testing.T) {
		job := s.jobs.Create(KindRender, "take.csv")
		s.jobs.Stop(job.ID)

		rec := do(t, s, http.MethodGet, "/jobs/"+job.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var view JobView
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			t.Fatal(err)
		}
		if view.Status != StatusStopped {
			t.Errorf("status = %s, want stopped", view.Status)
		}
	})
}
