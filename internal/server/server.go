package server

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/elpatron68/side-launcher/internal/auth"
	"github.com/elpatron68/side-launcher/internal/config"
	"github.com/elpatron68/side-launcher/internal/launcher"
	applog "github.com/elpatron68/side-launcher/internal/log"
	"github.com/elpatron68/side-launcher/internal/message"
	"github.com/elpatron68/side-launcher/internal/task"
	"github.com/elpatron68/side-launcher/internal/ui"
)

type Server struct {
	userStore auth.UserStore
	mux       *http.ServeMux
	layoutTpl *template.Template
	cfg       *config.Config
	engine    *launcher.Engine
	results   *ui.ResultLog
	uiCfg     config.UIConfig
	upgrader  websocket.Upgrader
	logger    applog.Logger

	sessMu   sync.Mutex
	sessions map[*wsSession]struct{}
}

const faviconSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">
  <rect rx="12" width="64" height="64" fill="#0366d6"/>
  <path d="M22 16l24 16-24 16z" fill="#fff"/>
 </svg>`

func NewServer(userStore auth.UserStore, cfg *config.Config, engine *launcher.Engine) *Server {
	s := &Server{
		userStore: userStore,
		cfg:       cfg,
		engine:    engine,
		uiCfg:     cfg.UI,
		results:   ui.NewResultLog(cfg.UI.CommandLogMax),
		logger:    applog.New("server"),
		sessions:  make(map[*wsSession]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.mux = http.NewServeMux()
	s.layoutTpl = template.Must(template.New("layout").Parse(layoutHTML))
	s.routes()
	return s
}

// Results exposes the per-user result history.
func (s *Server) Results() *ui.ResultLog { return s.results }

type pageData struct {
	Active     string
	Title      string
	Flash      *flash
	CSRF       string
	Tasks      []task.Definition
	Errors     []task.SourceError
	HelpOnly   bool
	ShowCmdLog bool
	Entries    []ui.ResultEntry
	MoreURL    string
	HelpHTML   template.HTML
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.layoutTpl.Execute(w, data); err != nil {
		s.logger.Error("render %s: %v", data.Active, err)
	}
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.HandleFunc("/favicon.svg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(faviconSVG))
	})

	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		username, _ := auth.UsernameFromRequest(r)
		res := s.engine.Resolve(r.Context())
		show, entries, moreURL := s.footerData(r, username)
		var failed []task.SourceError
		for _, e := range res.Errors {
			if !e.Missing() {
				failed = append(failed, e)
			}
		}
		s.render(w, pageData{
			Active:     "home",
			Title:      "Tasks",
			Flash:      s.getFlash(r),
			CSRF:       s.ensureCSRFToken(w, r),
			Tasks:      res.Tasks,
			Errors:     failed,
			HelpOnly:   s.engine.IsHelpOnly(res.Tasks),
			ShowCmdLog: show,
			Entries:    entries,
			MoreURL:    moreURL,
		})
	})

	s.mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if crossSite(r) {
			http.Error(w, "cross-origin request rejected", http.StatusForbidden)
			return
		}
		if !s.validCSRF(r) {
			s.setFlash(w, "error", "Invalid security token. Please refresh the page and try again.")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		tasks := s.engine.ResolveTasks(r.Context())
		i, err := strconv.Atoi(strings.TrimSpace(r.FormValue("i")))
		if err != nil || i < 0 || i >= len(tasks) {
			http.Error(w, "unknown task", http.StatusBadRequest)
			return
		}
		def := tasks[i]
		username, _ := auth.UsernameFromRequest(r)
		s.engine.Dispatch(r.Context(), s.results.Sink(username, def.Label), def)
		s.setFlash(w, "info", "Started: "+def.Label)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	s.mux.HandleFunc("/reload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if crossSite(r) {
			http.Error(w, "cross-origin request rejected", http.StatusForbidden)
			return
		}
		if !s.validCSRF(r) {
			s.setFlash(w, "error", "Invalid security token. Please refresh the page and try again.")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		res := s.engine.Resolve(r.Context())
		s.Broadcast(message.TasksUpdated{Tasks: res.Tasks})
		s.setFlash(w, "info", strconv.Itoa(len(res.Tasks))+" task(s) loaded")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	s.mux.HandleFunc("/api/tasks", func(w http.ResponseWriter, r *http.Request) {
		res := s.engine.Resolve(r.Context())
		type sourceErr struct {
			Source string `json:"source"`
			Error  string `json:"error"`
		}
		out := struct {
			Tasks  []task.Definition `json:"tasks"`
			Errors []sourceErr       `json:"errors"`
		}{Tasks: res.Tasks, Errors: []sourceErr{}}
		for _, e := range res.Errors {
			out.Errors = append(out.Errors, sourceErr{Source: e.Source, Error: e.Err.Error()})
		}
		writeJSON(w, http.StatusOK, out)
	})

	s.mux.HandleFunc("/api/run", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if crossSite(r) {
			http.Error(w, "cross-origin request rejected", http.StatusForbidden)
			return
		}
		if !isJSONRequest(r) {
			http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
		var req struct {
			Label    string `json:"label"`
			Command  string `json:"command"`
			TaskType string `json:"taskType"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		def, ok := s.pick(r, req.Label, req.Command, req.TaskType)
		if !ok {
			http.Error(w, "unknown task", http.StatusNotFound)
			return
		}
		username, _ := auth.UsernameFromRequest(r)
		res := s.engine.Execute(r.Context(), def, s.engine.Context())
		s.results.Append(username, def.Label, res)
		writeJSON(w, http.StatusOK, res)
	})

	s.mux.HandleFunc("/help", func(w http.ResponseWriter, r *http.Request) {
		s.render(w, pageData{
			Active:   "help",
			Title:    "Help",
			CSRF:     s.ensureCSRFToken(w, r),
			HelpHTML: renderMarkdown(helpMarkdown(s.cfg)),
		})
	})

	s.mux.HandleFunc("/ws", s.handleWebSocket)

	// Toggle result log visibility via cookie
	s.mux.HandleFunc("/__cmdlog", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("show") {
		case "0":
			http.SetCookie(w, &http.Cookie{Name: "cmdlog", Value: "off", Path: "/", MaxAge: 86400 * 365})
		case "1":
			http.SetCookie(w, &http.Cookie{Name: "cmdlog", Value: "on", Path: "/", MaxAge: 86400 * 365})
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

// pick finds a task by label in the current list, or builds an ad-hoc one
// when command is given.
func (s *Server) pick(r *http.Request, label, command, taskType string) (task.Definition, bool) {
	if command != "" {
		return task.Definition{Label: label, Type: task.Type(taskType), Command: command}.Normalized(), true
	}
	for _, d := range s.engine.ResolveTasks(r.Context()) {
		if d.Label == label {
			return d, true
		}
	}
	return task.Definition{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) footerData(r *http.Request, username string) (show bool, entries []ui.ResultEntry, moreURL string) {
	show = s.uiCfg.ShowCommandLog
	if c, err := r.Cookie("cmdlog"); err == nil {
		if c.Value == "off" {
			show = false
		} else if c.Value == "on" {
			show = true
		}
	}
	if !show {
		return
	}
	n := 5
	if r.URL.Query().Get("more") == "1" {
		n = 0
	} else {
		moreURL = "/?more=1"
	}
	entries = s.results.List(username, n)
	return
}

func (s *Server) Handler() http.Handler {
	// Basic Auth for everything except /healthz
	protected := auth.BasicAuthMiddleware(s.userStore, auth.Realm, s.mux)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			s.mux.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	})
}
