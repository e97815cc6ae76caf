package dashboard

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/bugboard/internal/bug"
	"github.com/zulandar/bugboard/internal/models"
	"github.com/zulandar/bugboard/internal/view"
)

// viewPaths maps each screen to the URL that renders it.
var viewPaths = map[view.View]string{
	view.Dashboard:     "/",
	view.List:          "/bugs",
	view.Create:        "/bugs/new",
	view.Search:        "/search",
	view.Team:          "/team",
	view.Notifications: "/notifications",
	view.Settings:      "/settings",
}

// navItem is one sidebar entry.
type navItem struct {
	Label  string
	Path   string
	Active bool
}

var sidebar = []struct {
	view  view.View
	label string
}{
	{view.Dashboard, "Dashboard"},
	{view.List, "All Bugs"},
	{view.Search, "Search"},
	{view.Team, "Team"},
	{view.Notifications, "Notifications"},
	{view.Settings, "Settings"},
}

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	// Embedded static assets (served from assets/ subdir of the embed.FS).
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	// Pages.
	router.GET("/", handleIndex(opts))
	router.GET("/bugs", handleBugList(opts))
	router.GET("/bugs/new", handleNewBug(opts))
	router.POST("/bugs/new", handleCreateBug(opts))
	router.GET("/bugs/:id", handleBugDetail(opts))
	router.POST("/bugs/:id/comments", handleAddComment(opts))
	router.POST("/bugs/:id/actions/:action", handleBugAction(opts))
	for _, v := range []view.View{view.Search, view.Team, view.Notifications, view.Settings} {
		router.GET(viewPaths[v], handleStub(v))
	}

	registerAPI(router, opts)
}

// render draws the page for the navigator's current screen.
func render(c *gin.Context, status int, nav *view.Navigator, data gin.H) {
	st := nav.Current()
	active := st.View
	if active == view.Detail {
		active = view.List
	}
	items := make([]navItem, len(sidebar))
	for i, s := range sidebar {
		items[i] = navItem{Label: s.label, Path: viewPaths[s.view], Active: s.view == active}
	}

	data["page"] = string(st.View)
	data["nav"] = items
	data["stub"] = view.IsStub(st.View)
	if st.Bug != nil {
		data["bug"] = st.Bug
	}
	c.HTML(status, "layout.html", data)
}

// backPath is where the page's back link leads, or "" when Back is a no-op.
func backPath(nav view.Navigator) string {
	from := nav.Current().View
	nav.Back()
	if to := nav.Current().View; to != from {
		return viewPaths[to]
	}
	return ""
}

func handleIndex(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		bugs, err := opts.Store.List(c.Request.Context())
		if err != nil {
			pageError(c, opts, err)
			return
		}
		now := opts.Now()
		render(c, http.StatusOK, view.NewNavigator(), gin.H{
			"summary": Summarize(bugs, now),
			"recent":  toRows(RecentBugs(bugs, RecentLimit), now),
		})
	}
}

func handleBugList(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderList(c, opts, http.StatusOK, "")
	}
}

// renderList draws the list page from the request's filter parameters.
func renderList(c *gin.Context, opts StartOpts, status int, notice string) {
	nav := view.NewNavigator()
	nav.Open(view.List)

	bugs, err := opts.Store.List(c.Request.Context())
	if err != nil {
		pageError(c, opts, err)
		return
	}
	filters := ListFilters{
		Search:   c.Query("q"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Sort:     c.Query("sort"),
	}
	result, err := BugList(bugs, filters, opts.Now())
	if err != nil {
		// Unknown filter values reset the form rather than failing the page.
		notice = err.Error()
		status = http.StatusBadRequest
		result, _ = BugList(bugs, ListFilters{Search: filters.Search}, opts.Now())
	}
	render(c, status, nav, gin.H{
		"list":   result,
		"notice": notice,
	})
}

func handleBugDetail(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderDetail(c, opts, http.StatusOK, "")
	}
}

// renderDetail draws the detail page for :id. An unknown bug falls back to
// the list with a notice.
func renderDetail(c *gin.Context, opts StartOpts, status int, commentErr string) {
	id := c.Param("id")
	b, err := opts.Store.Get(c.Request.Context(), id)
	if errors.Is(err, bug.ErrNotFound) {
		renderList(c, opts, http.StatusNotFound, fmt.Sprintf("Bug %s was not found.", id))
		return
	}
	if err != nil {
		pageError(c, opts, err)
		return
	}

	nav := view.NewNavigator()
	nav.Open(view.List)
	nav.SelectBug(b)
	render(c, status, nav, gin.H{
		"back":       backPath(*nav),
		"actions":    actionsFor(b),
		"overdue":    isOverdue(*b, opts.Now()),
		"commentErr": commentErr,
		"team":       opts.Team,
	})
}

func handleAddComment(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		_, err := opts.Store.AppendComment(c.Request.Context(), id,
			c.PostForm("author"), c.PostForm("content"))
		var verr *bug.ValidationError
		switch {
		case errors.As(err, &verr):
			renderDetail(c, opts, http.StatusBadRequest, verr.Fields[0].Field+" "+verr.Fields[0].Reason)
		case err != nil:
			renderDetailError(c, opts, err)
		default:
			c.Redirect(http.StatusSeeOther, "/bugs/"+id)
		}
	}
}

func handleBugAction(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		status, err := bug.ActionStatus(c.Param("action"))
		if err != nil {
			renderDetail(c, opts, http.StatusBadRequest, "")
			return
		}
		if _, err := opts.Store.SetStatus(c.Request.Context(), id, status); err != nil {
			renderDetailError(c, opts, err)
			return
		}
		opts.Logger.WithField("bug", id).WithField("status", status).Info("bug status changed")
		c.Redirect(http.StatusSeeOther, "/bugs/"+id)
	}
}

func renderDetailError(c *gin.Context, opts StartOpts, err error) {
	if errors.Is(err, bug.ErrNotFound) {
		renderList(c, opts, http.StatusNotFound, fmt.Sprintf("Bug %s was not found.", c.Param("id")))
		return
	}
	pageError(c, opts, err)
}

// reportForm is the report page's form state.
type reportForm struct {
	Draft   bug.Draft
	Tags    string
	DueDate string
	Errors  map[string]string
}

func newReportForm(d bug.Draft) reportForm {
	f := reportForm{Draft: d, Tags: strings.Join(d.Tags, ", "), Errors: map[string]string{}}
	if d.DueDate != nil {
		f.DueDate = d.DueDate.Format(time.DateOnly)
	}
	return f
}

func handleNewBug(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderReport(c, opts, http.StatusOK, newReportForm(bug.NewDraft()))
	}
}

func renderReport(c *gin.Context, opts StartOpts, status int, form reportForm) {
	nav := view.NewNavigator()
	nav.ReportBug()
	render(c, status, nav, gin.H{
		"form":       form,
		"back":       backPath(*nav),
		"categories": opts.Categories,
		"team":       opts.Team,
		"priorities": models.Priorities,
	})
}

// draftFromForm reads the report form. Tags are comma separated and each
// reproduction step is its own "steps" field.
func draftFromForm(c *gin.Context) (reportForm, error) {
	d := bug.NewDraft()
	d.Title = c.PostForm("title")
	d.Description = c.PostForm("description")
	d.Priority = models.Priority(c.PostForm("priority"))
	d.Category = c.PostForm("category")
	d.Assignee = c.PostForm("assignee")
	d.Reporter = c.PostForm("reporter")
	d.Environment = c.PostForm("environment")
	d.Version = c.PostForm("version")
	if steps, ok := c.GetPostFormArray("steps"); ok {
		d.ReproductionSteps = steps
	}
	for _, tag := range strings.Split(c.PostForm("tags"), ",") {
		d.AddTag(tag)
	}
	for _, name := range strings.Split(c.PostForm("attachments"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			d.Attachments = append(d.Attachments, name)
		}
	}

	form := newReportForm(d)
	form.Tags = c.PostForm("tags")
	form.DueDate = c.PostForm("dueDate")
	if form.DueDate != "" {
		due, err := time.ParseInLocation(time.DateOnly, form.DueDate, time.UTC)
		if err != nil {
			return form, &bug.ValidationError{Fields: []bug.FieldError{
				{Field: "dueDate", Reason: "must be a date (YYYY-MM-DD)"},
			}}
		}
		form.Draft.DueDate = &due
	}
	return form, nil
}

func handleCreateBug(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, dateErr := draftFromForm(c)

		// Step editing buttons re-render the form without submitting.
		switch op := c.PostForm("op"); {
		case op == "add-step":
			form.Draft.AddStep("")
			renderReport(c, opts, http.StatusOK, form)
			return
		case strings.HasPrefix(op, "remove-step-"):
			i, _ := strconv.Atoi(strings.TrimPrefix(op, "remove-step-"))
			form.Draft.RemoveStep(i)
			renderReport(c, opts, http.StatusOK, form)
			return
		}

		var err error
		if dateErr != nil {
			err = joinValidation(dateErr, bug.Validate(form.Draft))
		} else {
			var b *models.Bug
			b, err = opts.Store.Create(c.Request.Context(), form.Draft)
			if err == nil {
				opts.Logger.WithField("bug", b.ID).Info("bug created")
				nav := view.NewNavigator()
				nav.ReportBug()
				nav.Submitted()
				c.Redirect(http.StatusSeeOther, viewPaths[nav.Current().View])
				return
			}
		}

		var verr *bug.ValidationError
		if !errors.As(err, &verr) {
			pageError(c, opts, err)
			return
		}
		for _, f := range verr.Fields {
			form.Errors[f.Field] = f.Reason
		}
		renderReport(c, opts, http.StatusBadRequest, form)
	}
}

// joinValidation merges the field errors of a and b into one ValidationError.
func joinValidation(a, b error) error {
	var out bug.ValidationError
	for _, err := range []error{a, b} {
		var verr *bug.ValidationError
		if errors.As(err, &verr) {
			out.Fields = append(out.Fields, verr.Fields...)
		}
	}
	return &out
}

func handleStub(v view.View) gin.HandlerFunc {
	return func(c *gin.Context) {
		nav := view.NewNavigator()
		nav.Open(v)
		render(c, http.StatusOK, nav, gin.H{})
	}
}

// pageError renders the error page for a store failure.
func pageError(c *gin.Context, opts StartOpts, err error) {
	opts.Logger.WithError(err).WithField("path", c.Request.URL.Path).Error("dashboard: page failed")
	c.Error(err)
	c.HTML(http.StatusInternalServerError, "layout.html", gin.H{
		"page":  "error",
		"nav":   []navItem{},
		"error": err.Error(),
	})
}
