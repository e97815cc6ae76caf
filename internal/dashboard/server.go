// Package dashboard serves the bugboard web UI and JSON API.
package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/zulandar/bugboard/internal/bug"
	"github.com/zulandar/bugboard/internal/config"
	"github.com/zulandar/bugboard/internal/models"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Store      bug.Store
	Port       int
	Out        io.Writer
	Categories []string
	Team       []string
	Logger     log.FieldLogger
	Now        func() time.Time
}

// withDefaults fills unset options.
func (o StartOpts) withDefaults() StartOpts {
	if o.Port <= 0 {
		o.Port = 8080
	}
	if len(o.Categories) == 0 {
		o.Categories = config.DefaultCategories
	}
	if len(o.Team) == 0 {
		o.Team = config.DefaultTeam
	}
	if o.Logger == nil {
		o.Logger = log.StandardLogger()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	opts = opts.withDefaults()
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}
	opts.Logger.WithField("addr", addr).Info("dashboard listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with templates, middleware and routes.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("dashboard: store is required")
	}
	opts = opts.withDefaults()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger))

	// Parse embedded templates.
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	registerRoutes(router, opts)
	return router, nil
}

// templateFuncs are available to every page template.
var templateFuncs = template.FuncMap{
	"timeAgo":     TimeAgo,
	"statusLabel": statusLabel,
	"priorityLabel": func(p models.Priority) string {
		if p == "" {
			return ""
		}
		return strings.ToUpper(string(p[:1])) + string(p[1:])
	},
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.DateOnly)
	},
	"datetime": func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04")
	},
	"priorityClass": func(p models.Priority) string {
		return "priority-" + string(p)
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
