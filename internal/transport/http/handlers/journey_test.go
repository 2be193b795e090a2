package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"attend/internal/app/server"
	"attend/internal/domain/calendar"
	"attend/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		FrontendDir:        "frontend/dist",
		Environment:        "test",
		SeedMDEmail:        "md@test.local",
		SeedMDPassword:     "ChangeMe123!",
		SeedMDName:         "Test MD",
		MorningReminder:    "09:30",
		AfternoonReminder:  "15:30",
		ReminderTick:       time.Minute,
		TokenCacheTTL:      time.Minute,
		HolidayCacheTTL:    time.Minute,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		RunMigrations:      true,
		RunSeed:            true,
		MetricsEnabled:     true,
	}
}

func startApp(t *testing.T) (*server.App, *httptest.Server) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	app, err := server.New(context.Background(), testConfig(dbURL))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return app, ts
}

func TestAttendanceAndLeaveJourney(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	mdToken := login(t, client, ts.URL, "md@test.local", "ChangeMe123!")

	email := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	employeeID := onboardEmployee(t, client, ts.URL, mdToken, email, 10)

	empToken := login(t, client, ts.URL, email, "Worker123!")

	// Mark today, then have the MD approve it.
	today := calendar.Today().Format(calendar.DateLayout)
	resp := postJSON(t, client, ts.URL+"/api/v1/attendance/mark", empToken, map[string]any{
		"locationType": "Office",
	})
	var marked map[string]any
	if err := json.Unmarshal(resp.Data, &marked); err != nil {
		t.Fatalf("failed to decode mark response: %v", err)
	}
	if status, _ := marked["status"].(string); status != "pending" && status != "pending_co" {
		t.Fatalf("expected undecided attendance, got %v", marked["status"])
	}

	resp = postJSON(t, client, ts.URL+"/api/v1/attendance/status", mdToken, map[string]any{
		"employeeId": employeeID,
		"date":       today,
		"decision":   "approved",
	})
	var decided map[string]any
	if err := json.Unmarshal(resp.Data, &decided); err != nil {
		t.Fatalf("failed to decode decide response: %v", err)
	}
	if status, _ := decided["status"].(string); status != "Present" {
		t.Fatalf("expected Present after approval, got %v", decided["status"])
	}

	// Apply for two weekdays of paid leave and approve it.
	from, to := nextMondayRange()
	resp = postJSON(t, client, ts.URL+"/api/v1/leave/apply", empToken, map[string]any{
		"type":   "PL",
		"from":   from,
		"to":     to,
		"reason": "Family function",
	})
	var applied map[string]any
	if err := json.Unmarshal(resp.Data, &applied); err != nil {
		t.Fatalf("failed to decode apply response: %v", err)
	}
	leaveID, _ := applied["leaveId"].(string)
	if leaveID == "" {
		t.Fatal("expected leave id")
	}
	if status, _ := applied["status"].(string); status != "pending" {
		t.Fatalf("expected pending leave, got %v", applied["status"])
	}

	resp = postJSON(t, client, ts.URL+"/api/v1/leave/"+leaveID+"/approve", mdToken, map[string]any{
		"employeeId": employeeID,
	})
	var approved map[string]any
	if err := json.Unmarshal(resp.Data, &approved); err != nil {
		t.Fatalf("failed to decode approve response: %v", err)
	}
	if status, _ := approved["status"].(string); status != "approved" {
		t.Fatalf("expected approved leave, got %v", approved["status"])
	}

	// Two billable days must be debited from the opening balance of 10.
	resp = getJSON(t, client, ts.URL+"/api/v1/employees/"+employeeID, mdToken)
	var emp map[string]any
	if err := json.Unmarshal(resp.Data, &emp); err != nil {
		t.Fatalf("failed to decode employee response: %v", err)
	}
	if pl, _ := emp["plBalance"].(float64); pl != 8 {
		t.Fatalf("expected PL balance 8 after approval, got %v", emp["plBalance"])
	}

	// Manual ledger credit shows up in the balances view.
	postJSON(t, client, ts.URL+"/api/v1/employees/"+employeeID+"/balances", mdToken, map[string]any{
		"field":  "co",
		"delta":  2,
		"reason": "Worked the audit weekend",
	})
	resp = getJSON(t, client, ts.URL+"/api/v1/employees/"+employeeID+"/balances", mdToken)
	var ledgerView map[string]any
	if err := json.Unmarshal(resp.Data, &ledgerView); err != nil {
		t.Fatalf("failed to decode balances response: %v", err)
	}
	if co, _ := ledgerView["coBalance"].(float64); co < 2 {
		t.Fatalf("expected CO balance of at least 2 after credit, got %v", ledgerView["coBalance"])
	}

	resp = getJSON(t, client, ts.URL+"/api/v1/leave/history/"+employeeID, empToken)
	var history []map[string]any
	if err := json.Unmarshal(resp.Data, &history); err != nil {
		t.Fatalf("failed to decode history response: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one leave request in history, got %d", len(history))
	}

	pdf := getRaw(t, client, ts.URL+"/api/v1/leave/history/"+employeeID+"/export", empToken, "application/pdf")
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatal("expected a PDF export")
	}

	resp = getJSON(t, client, ts.URL+"/api/v1/dashboard/stats", mdToken)
	var stats map[string]any
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		t.Fatalf("failed to decode stats response: %v", err)
	}
	if marked, _ := stats["markedToday"].(float64); marked < 1 {
		t.Fatalf("expected at least one marked record today, got %v", stats["markedToday"])
	}

	resp = getJSON(t, client, ts.URL+"/api/v1/dashboard/audit?limit=10", mdToken)
	var events []map[string]any
	if err := json.Unmarshal(resp.Data, &events); err != nil {
		t.Fatalf("failed to decode audit response: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected audit events for the journey")
	}
}

func TestEmployeeCannotReachManagerSurfaces(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	mdToken := login(t, client, ts.URL, "md@test.local", "ChangeMe123!")
	email := fmt.Sprintf("restricted-%d@example.com", time.Now().UnixNano())
	onboardEmployee(t, client, ts.URL, mdToken, email, 0)
	empToken := login(t, client, ts.URL, email, "Worker123!")

	getStatus(t, client, ts.URL+"/api/v1/employees", empToken, http.StatusForbidden)
	getStatus(t, client, ts.URL+"/api/v1/dashboard/stats", empToken, http.StatusForbidden)
	getStatus(t, client, ts.URL+"/api/v1/leave/history/some-other-id", empToken, http.StatusForbidden)
	getStatus(t, client, ts.URL+"/api/v1/dashboard/stats", "", http.StatusUnauthorized)
}

func TestHolidayAffectsLeaveBilling(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	mdToken := login(t, client, ts.URL, "md@test.local", "ChangeMe123!")

	from, to := nextMondayRange()
	postJSON(t, client, ts.URL+"/api/v1/holidays", mdToken, map[string]any{
		"date": from,
		"name": "Journey Festival",
	})
	defer deleteStatus(t, client, ts.URL+"/api/v1/holidays/"+from, mdToken, http.StatusOK)

	email := fmt.Sprintf("billing-%d@example.com", time.Now().UnixNano())
	onboardEmployee(t, client, ts.URL, mdToken, email, 5)
	empToken := login(t, client, ts.URL, email, "Worker123!")

	// Monday is now a holiday, so only Tuesday is billable.
	resp := postJSON(t, client, ts.URL+"/api/v1/leave/apply", empToken, map[string]any{
		"type": "PL",
		"from": from,
		"to":   to,
	})
	var applied map[string]any
	if err := json.Unmarshal(resp.Data, &applied); err != nil {
		t.Fatalf("failed to decode apply response: %v", err)
	}
	if days, _ := applied["totalDays"].(float64); days != 1 {
		t.Fatalf("expected one billable day, got %v", applied["totalDays"])
	}
}

func nextMondayRange() (string, string) {
	day := calendar.Today().AddDate(0, 0, 1)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return day.Format(calendar.DateLayout), day.AddDate(0, 0, 1).Format(calendar.DateLayout)
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func onboardEmployee(t *testing.T, client *http.Client, baseURL, token, email string, plBalance int) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/employees", token, map[string]any{
		"name":      "Journey Tester",
		"email":     email,
		"password":  "Worker123!",
		"role":      "Employee",
		"plBalance": plBalance,
		"coBalance": 0,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode employee response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected employee id")
	}
	return id
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(payload))
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(payload))
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func getRaw(t *testing.T, client *http.Client, url, token, wantContentType string) []byte {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(payload))
	}
	if ct := resp.Header.Get("Content-Type"); ct != wantContentType {
		t.Fatalf("expected content type %s, got %s", wantContentType, ct)
	}
	return payload
}

func getStatus(t *testing.T, client *http.Client, url, token string, want int) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(payload))
	}
}

func deleteStatus(t *testing.T, client *http.Client, url, token string, want int) {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(payload))
	}
}
