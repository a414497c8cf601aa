package dashboard

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/timerd/timerd/fields"
	"github.com/timerd/timerd/utils"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	file, err := os.CreateTemp("", "timerd-dashboard-*.db")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	t.Cleanup(func() { os.Remove(file.Name()) })

	db, err := utils.Database(file.Name())
	if err != nil {
		t.Fatalf("Database: %v", err)
	}
	if err := db.AutoMigrate(&fields.TimerRecord{}, &fields.FiringEvent{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func newTestRoute(t *testing.T) (*Service, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := &Service{Db: testDB(t)}

	route := gin.New()
	route.GET("/dashboard/count", svc.TimersCount)
	route.GET("/dashboard/firings", svc.RecentFirings)
	route.GET("/dashboard/daily", svc.DailySummary)
	return svc, route
}

func get(t *testing.T, route *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	route.ServeHTTP(w, req)
	return w
}

func TestTimersCount(t *testing.T) {
	svc, route := newTestRoute(t)

	seed := []fields.TimerRecord{
		{UUID: "a", State: fields.StateCreated},
		{UUID: "b", State: fields.StateRunning},
		{UUID: "c", State: fields.StateRunning},
		{UUID: "d", State: fields.StateExpired},
	}
	for i := range seed {
		if err := svc.Db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w := get(t, route, "/dashboard/count")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Result map[string]int64 `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result["running"] != 2 || resp.Result["total"] != 4 {
		t.Errorf("counts = %+v", resp.Result)
	}
	if resp.Result["stopped"] != 0 {
		t.Errorf("stopped = %d, want 0", resp.Result["stopped"])
	}
}

func TestRecentFirings(t *testing.T) {
	svc, route := newTestRoute(t)

	for i := 0; i < 3; i++ {
		event := fields.FiringEvent{TimerUUID: "uuid-1", ElapsedMicros: int64(i + 1), Expired: i%2 == 0}
		if err := svc.Db.Create(&event).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w := get(t, route, "/dashboard/firings")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Result []fields.FiringEvent `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Result) != 3 {
		t.Fatalf("count = %d, want 3", len(resp.Result))
	}
	// newest first
	if resp.Result[0].ElapsedMicros != 3 {
		t.Errorf("first event = %+v", resp.Result[0])
	}
}

func TestDailySummary(t *testing.T) {
	svc, route := newTestRoute(t)

	events := []fields.FiringEvent{
		{TimerUUID: "uuid-1", ElapsedMicros: 100, Expired: true},
		{TimerUUID: "uuid-1", ElapsedMicros: 200, Expired: false},
		{TimerUUID: "uuid-2", ElapsedMicros: 300, Expired: true},
	}
	for i := range events {
		if err := svc.Db.Create(&events[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w := get(t, route, "/dashboard/daily")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Result []struct {
			Date          string `json:"date"`
			Firings       int64  `json:"firings"`
			Expired       int64  `json:"expired"`
			ElapsedMicros int64  `json:"elapsed_micros"`
		} `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Result) != 1 {
		t.Fatalf("days = %d, want 1", len(resp.Result))
	}
	day := resp.Result[0]
	if day.Firings != 3 || day.Expired != 2 || day.ElapsedMicros != 600 {
		t.Errorf("summary = %+v", day)
	}
}
