package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/zulandar/bugboard/internal/bug"
	"github.com/zulandar/bugboard/internal/models"
	"github.com/zulandar/bugboard/internal/query"
)

// RecentLimit is the number of bugs shown in the dashboard's recent panel.
const RecentLimit = 5

// StatusCount is the number of bugs in one status.
type StatusCount struct {
	Status models.Status `json:"status"`
	Count  int           `json:"count"`
}

// PriorityCount is the number of bugs at one priority.
type PriorityCount struct {
	Priority models.Priority `json:"priority"`
	Count    int             `json:"count"`
}

// Summary holds the dashboard's headline numbers.
type Summary struct {
	Total      int             `json:"total"`
	Active     int             `json:"active"`
	Done       int             `json:"done"`
	Overdue    int             `json:"overdue"`
	ByStatus   []StatusCount   `json:"byStatus"`
	ByPriority []PriorityCount `json:"byPriority"`
}

// Count returns the number of bugs in status s.
func (s Summary) Count(status models.Status) int {
	for _, sc := range s.ByStatus {
		if sc.Status == status {
			return sc.Count
		}
	}
	return 0
}

// Summarize counts bugs by status and priority. Every status and priority is
// listed, in workflow and urgency order, even when its count is zero.
func Summarize(bugs []models.Bug, now time.Time) Summary {
	byStatus := lo.GroupBy(bugs, func(b models.Bug) models.Status { return b.Status })
	byPriority := lo.GroupBy(bugs, func(b models.Bug) models.Priority { return b.Priority })

	s := Summary{
		Total: len(bugs),
		ByStatus: lo.Map(models.Statuses, func(st models.Status, _ int) StatusCount {
			return StatusCount{Status: st, Count: len(byStatus[st])}
		}),
		ByPriority: lo.Map(models.Priorities, func(p models.Priority, _ int) PriorityCount {
			return PriorityCount{Priority: p, Count: len(byPriority[p])}
		}),
	}
	for _, b := range bugs {
		if b.Status.Done() {
			s.Done++
			continue
		}
		s.Active++
		if isOverdue(b, now) {
			s.Overdue++
		}
	}
	return s
}

// RecentBugs returns the n most recently updated bugs.
func RecentBugs(bugs []models.Bug, n int) []models.Bug {
	sorted, err := query.Run(bugs, query.Params{Sort: query.SortUpdatedAt})
	if err != nil {
		return []models.Bug{}
	}
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func isOverdue(b models.Bug, now time.Time) bool {
	return b.DueDate != nil && b.DueDate.Before(now) && !b.Status.Done()
}

// BugRow holds bug data for display in tables.
type BugRow struct {
	ID           string
	Title        string
	Status       models.Status
	Priority     models.Priority
	Category     string
	Assignee     string
	Reporter     string
	Tags         []string
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DueDate      *time.Time
	Overdue      bool
}

func toRows(bugs []models.Bug, now time.Time) []BugRow {
	return lo.Map(bugs, func(b models.Bug, _ int) BugRow {
		return BugRow{
			ID:           b.ID,
			Title:        b.Title,
			Status:       b.Status,
			Priority:     b.Priority,
			Category:     b.Category,
			Assignee:     b.Assignee,
			Reporter:     b.Reporter,
			Tags:         b.Tags,
			CommentCount: len(b.Comments),
			CreatedAt:    b.CreatedAt,
			UpdatedAt:    b.UpdatedAt,
			DueDate:      b.DueDate,
			Overdue:      isOverdue(b, now),
		}
	})
}

// ListFilters echoes the list page's filter form.
type ListFilters struct {
	Search   string
	Status   string
	Priority string
	Sort     string
}

// BugListResult holds the list page rows plus values for the filter dropdowns.
type BugListResult struct {
	Bugs       []BugRow
	Filters    ListFilters
	Total      int
	Statuses   []models.Status
	Priorities []models.Priority
	SortKeys   []query.SortKey
}

// BugList runs the list query and shapes it for the list page.
func BugList(bugs []models.Bug, f ListFilters, now time.Time) (BugListResult, error) {
	p, err := query.ParseParams(f.Search, f.Status, f.Priority, f.Sort)
	if err != nil {
		return BugListResult{}, err
	}
	found, err := query.Run(bugs, p)
	if err != nil {
		return BugListResult{}, err
	}
	if f.Status == "" {
		f.Status = query.All
	}
	if f.Priority == "" {
		f.Priority = query.All
	}
	if f.Sort == "" {
		f.Sort = string(query.DefaultSort)
	}
	return BugListResult{
		Bugs:       toRows(found, now),
		Filters:    f,
		Total:      len(bugs),
		Statuses:   models.Statuses,
		Priorities: models.Priorities,
		SortKeys:   query.SortKeys,
	}, nil
}

// Action is a quick status action offered on the detail page.
type Action struct {
	Name  string
	Label string
}

// actionsFor lists the quick actions that change b's status.
func actionsFor(b *models.Bug) []Action {
	all := []Action{
		{"start", "Start Working"},
		{"test", "Send to Testing"},
		{"resolve", "Mark Resolved"},
		{"close", "Close"},
		{"reopen", "Reopen"},
	}
	return lo.Filter(all, func(a Action, _ int) bool {
		target := bug.Actions[a.Name]
		if target == b.Status {
			return false
		}
		if a.Name == "reopen" {
			return b.Status.Done()
		}
		return true
	})
}

// TimeAgo returns a human-readable relative time string.
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// statusLabel renders a status for display, e.g. "in-progress" as "In Progress".
func statusLabel(s models.Status) string {
	words := strings.Split(string(s), "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
