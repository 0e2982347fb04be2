package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/korjavin/docquizbot/quiz"
)

type fakeStats struct{ st quiz.Stats }

func (f fakeStats) Stats() quiz.Stats { return f.st }

type fakePinger struct{ err error }

func (f fakePinger) Ping() error { return f.err }

func TestHealthz(t *testing.T) {
	h := Routes(fakeStats{}, fakePinger{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
}

func TestHealthzDegraded(t *testing.T) {
	h := Routes(fakeStats{}, fakePinger{err: errors.New("disk I/O error")})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: want=%d got=%d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestStats(t *testing.T) {
	want := quiz.Stats{ActiveSessions: 2, PendingGenerations: 1, TrackedUsers: 7}
	h := Routes(fakeStats{st: want}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	var got quiz.Stats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("stats: want=%+v got=%+v", want, got)
	}
}
