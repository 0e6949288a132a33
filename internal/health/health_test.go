package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wave-portal/internal/app"
	"wave-portal/internal/models"

	"github.com/rs/zerolog"
)

type fakeHistory struct {
	seeded     bool
	subscribed bool
}

func (f fakeHistory) Seeded() bool     { return f.seeded }
func (f fakeHistory) Subscribed() bool { return f.subscribed }

func newTestServer(history Readiness) *Server {
	logger := zerolog.Nop()
	state := func() app.State {
		return app.State{
			Account: "0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5",
			Records: []models.Record{{Sender: "0xA", Timestamp: time.Unix(1, 0), Message: "hi"}},
			Pending: models.PendingSubmission{Phase: models.PhaseConfirmed},
		}
	}
	return NewServer(0, history, state, &logger)
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(fakeHistory{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		history  fakeHistory
		wantCode int
		want     string
	}{
		{"ready", fakeHistory{seeded: true, subscribed: true}, http.StatusOK, "Ready"},
		{"not seeded", fakeHistory{subscribed: true}, http.StatusServiceUnavailable, "Not Ready"},
		{"not subscribed", fakeHistory{seeded: true}, http.StatusServiceUnavailable, "Not Ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestServer(tt.history).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			var status Status
			if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if status.Status != tt.want {
				t.Errorf("status = %q, want %q", status.Status, tt.want)
			}
			if status.Records != 1 || status.Phase != "confirmed" || status.Account == "" {
				t.Errorf("status = %+v", status)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(fakeHistory{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output is missing the default collectors")
	}
}
