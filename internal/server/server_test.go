package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/elpatron68/side-launcher/internal/auth"
	"github.com/elpatron68/side-launcher/internal/config"
	"github.com/elpatron68/side-launcher/internal/dispatch"
	"github.com/elpatron68/side-launcher/internal/launcher"
	"github.com/elpatron68/side-launcher/internal/task"
	"github.com/elpatron68/side-launcher/internal/workspace"
)

func newTestServer(t *testing.T, tasksJSON string) *Server {
	t.Helper()
	root := t.TempDir()
	folder := filepath.Join(root, "proj")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Sources.ExternalTasksFile = filepath.Join(root, "tasks.json")
	if tasksJSON != "" {
		if err := os.WriteFile(cfg.Sources.ExternalTasksFile, []byte(tasksJSON), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	engine := launcher.New(cfg,
		launcher.StaticHost{Workspace: workspace.Workspace{Folders: []string{folder}}},
		nil, dispatch.New(nil, nil), nil)

	us := auth.NewInMemoryUserStore()
	if err := us.AddUserPlain("admin", "admin"); err != nil {
		t.Fatalf("user: %v", err)
	}
	return NewServer(us, cfg, engine)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.SetBasicAuth("admin", "admin")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestHomeRequiresAuth(t *testing.T) {
	s := newTestServer(t, "")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestHomeRendersTaskButtons(t *testing.T) {
	s := newTestServer(t, `[{"label":"Build it","command":"make"},{"label":"Top","type":"shellOnVSCode","command":"htop"}]`)
	rr := get(t, s, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Build it", "Top", `class="terminal"`, `name="csrf_token"`, "Recent results"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestHomeShowsHelpHintWhenEmpty(t *testing.T) {
	s := newTestServer(t, "")
	body := get(t, s, "/").Body.String()
	if !strings.Contains(body, task.HelpLabel) || !strings.Contains(body, "No tasks configured yet") {
		t.Fatalf("help task not rendered")
	}
}

func TestHomeShowsSourceErrors(t *testing.T) {
	s := newTestServer(t, `[{"label": broken`)
	body := get(t, s, "/").Body.String()
	if !strings.Contains(body, "external file") {
		t.Fatalf("parse error of external file not shown")
	}
}

func TestAPITasks(t *testing.T) {
	s := newTestServer(t, `[{"label":"a","command":"ls"},{"label":"a","command":"ls"}]`)
	rr := get(t, s, "/api/tasks")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out struct {
		Tasks  []task.Definition `json:"tasks"`
		Errors []struct{ Source, Error string }
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Tasks) != 1 || out.Tasks[0].Type != task.TypeShell {
		t.Fatalf("unexpected tasks: %+v", out.Tasks)
	}
}

func TestAPIRunByLabel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	s := newTestServer(t, `[{"label":"hello","command":"echo ready"}]`)
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(`{"label":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", "admin")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var res dispatch.CommandResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Stdout != "ready\n" || res.Error != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := s.Results().List("admin", 0); len(got) != 1 || got[0].Label != "hello" {
		t.Fatalf("result not logged: %+v", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(`{"label":"missing"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", "admin")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestAPIRunRejectsCrossSiteRequests(t *testing.T) {
	root := t.TempDir()
	marker := filepath.Join(root, "ran")
	cfg := config.Default()
	cfg.Sources.ExternalTasksFile = filepath.Join(root, "tasks.json")
	engine := launcher.New(cfg,
		launcher.StaticHost{Workspace: workspace.Workspace{Folders: []string{root}}},
		nil, dispatch.New(nil, nil), nil)
	// No users: the UI is open, as on a loopback-only serve.
	s := NewServer(auth.NewInMemoryUserStore(), cfg, engine)
	body := `{"command":"touch ` + marker + `"}`

	cases := []struct {
		name        string
		contentType string
		origin      string
		fetchSite   string
		want        int
	}{
		{"text/plain from another origin", "text/plain", "http://evil.example", "", http.StatusForbidden},
		{"json from another origin", "application/json", "http://evil.example", "", http.StatusForbidden},
		{"fetch metadata cross-site", "application/json", "", "cross-site", http.StatusForbidden},
		{"text/plain without origin", "text/plain", "", "", http.StatusUnsupportedMediaType},
		{"form encoded same origin", "application/x-www-form-urlencoded", "http://example.com", "", http.StatusUnsupportedMediaType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(body))
			req.Header.Set("Content-Type", tc.contentType)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.fetchSite != "" {
				req.Header.Set("Sec-Fetch-Site", tc.fetchSite)
			}
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
			if _, err := os.Stat(marker); err == nil {
				t.Fatalf("command ran")
			}
		})
	}
}

func TestAPIRunAllowsSameOriginJSON(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(`{"command":"echo adhoc"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Origin", "http://example.com")
	req.SetBasicAuth("admin", "admin")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var res dispatch.CommandResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Stdout != "adhoc\n" {
		t.Fatalf("unexpected stdout %q", res.Stdout)
	}
}

func TestReloadRequiresTokenAndSameOrigin(t *testing.T) {
	s := newTestServer(t, `[{"label":"hi","command":"true"}]`)

	req := httptest.NewRequest(http.MethodPost, "/reload", strings.NewReader("csrf_token=tok"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "http://evil.example")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "tok"})
	req.SetBasicAuth("admin", "admin")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-origin reload, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/reload", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("admin", "admin")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	if !strings.Contains(flashCookie(rr), "Invalid") {
		t.Fatalf("expected token error flash, got %q", flashCookie(rr))
	}

	req = httptest.NewRequest(http.MethodPost, "/reload", strings.NewReader("csrf_token=tok"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "tok"})
	req.SetBasicAuth("admin", "admin")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther || !strings.Contains(flashCookie(rr), "loaded") {
		t.Fatalf("expected reload, got %d %q", rr.Code, flashCookie(rr))
	}
}

func flashCookie(rr *httptest.ResponseRecorder) string {
	for _, c := range rr.Result().Cookies() {
		if c.Name == "flash" {
			v, _ := url.QueryUnescape(c.Value)
			return v
		}
	}
	return ""
}

func TestRunFormDispatchesIntoResultLog(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	s := newTestServer(t, `[{"label":"hi","command":"echo from-form"}]`)
	form := url.Values{"i": {"0"}, "csrf_token": {"tok"}}
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "tok"})
	req.SetBasicAuth("admin", "admin")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if got := s.Results().List("admin", 0); len(got) == 1 {
			if got[0].Result.Stdout != "from-form\n" {
				t.Fatalf("unexpected stdout %q", got[0].Result.Stdout)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("result never delivered")
}

func TestRunFormRejectsBadCSRF(t *testing.T) {
	s := newTestServer(t, `[{"label":"hi","command":"true"}]`)
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader("i=0&csrf_token=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("admin", "admin")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	if len(s.Results().List("admin", 0)) != 0 {
		t.Fatalf("task ran without a valid token")
	}
}

func TestHelpPage(t *testing.T) {
	s := newTestServer(t, "")
	rr := get(t, s, "/help")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got status %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"<h1", "sideLauncher.tasks", "CURRENT_FILE_RELATIVE_PATH", "<code"} {
		if !strings.Contains(body, want) {
			t.Fatalf("help page missing %q", want)
		}
	}
}

func TestFlashRoundTrip(t *testing.T) {
	s := newTestServer(t, "")
	rr := httptest.NewRecorder()
	s.setFlash(rr, "error", "a|b c")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	f := s.getFlash(req)
	if f == nil || f.Type != "error" || f.Text != "a|b c" {
		t.Fatalf("unexpected flash: %+v", f)
	}
}

func TestWebSocketSession(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	s := newTestServer(t, `[{"label":"hi","command":"echo ws"}]`)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	hdr := http.Header{}
	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	req.SetBasicAuth("admin", "admin")
	hdr.Set("Authorization", req.Header.Get("Authorization"))
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", hdr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var first map[string]any
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	if first["type"] != "tasksUpdated" {
		t.Fatalf("expected tasksUpdated first, got %v", first["type"])
	}

	if err := conn.WriteJSON(map[string]string{"type": "runCommand", "command": "echo ws"}); err != nil {
		t.Fatal(err)
	}
	var out struct {
		Type   string                 `json:"type"`
		Output dispatch.CommandResult `json:"output"`
	}
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatal(err)
	}
	if out.Type != "commandOutput" || out.Output.Stdout != "ws\n" {
		t.Fatalf("unexpected message: %+v", out)
	}
	if s.SessionCount() != 1 {
		t.Fatalf("expected one session, got %d", s.SessionCount())
	}
}
