package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"
	"github.com/zulandar/bugboard/internal/bug"
	"github.com/zulandar/bugboard/internal/models"
	"github.com/zulandar/bugboard/internal/query"
)

func newBugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bug",
		Short: "Bug management commands",
	}

	cmd.AddCommand(newBugCreateCmd())
	cmd.AddCommand(newBugListCmd())
	cmd.AddCommand(newBugShowCmd())
	cmd.AddCommand(newBugCommentCmd())
	cmd.AddCommand(newBugStatusCmd())
	cmd.AddCommand(newBugEditCmd())
	return cmd
}

// parseDue reads a YYYY-MM-DD flag value as midnight UTC.
func parseDue(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid --due %q: want YYYY-MM-DD", raw)
	}
	return &t, nil
}

// explain expands a validation error into one line per failing field.
func explain(err error) error {
	var verr *bug.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	lines := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		lines[i] = fmt.Sprintf("  %s: %s", f.Field, f.Reason)
	}
	return fmt.Errorf("invalid bug report:\n%s", strings.Join(lines, "\n"))
}

func newBugCreateCmd() *cobra.Command {
	var (
		d        = bug.NewDraft()
		priority string
		due      string
		tags     []string
		steps    []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Report a new bug",
		Long:  "Creates a new bug report with an auto-generated ID. Title, description and category are required.",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Priority = models.Priority(priority)
			for _, t := range tags {
				d.AddTag(t)
			}
			d.ReproductionSteps = steps
			dueDate, err := parseDue(due)
			if err != nil {
				return err
			}
			d.DueDate = dueDate
			return runBugCreate(cmd, d)
		},
	}

	cmd.Flags().StringVar(&d.Title, "title", "", "bug title (required)")
	cmd.Flags().StringVar(&d.Description, "description", "", "what goes wrong (required)")
	cmd.Flags().StringVar(&d.Category, "category", "", "category, e.g. Authentication (required)")
	cmd.Flags().StringVar(&priority, "priority", string(models.PriorityMedium), "priority (low, medium, high, critical)")
	cmd.Flags().StringVar(&d.Assignee, "assignee", "", "team member to assign")
	cmd.Flags().StringVar(&d.Reporter, "reporter", "", "who reported the bug")
	cmd.Flags().StringVar(&d.Environment, "environment", "", "environment, e.g. browser and OS")
	cmd.Flags().StringVar(&d.Version, "app-version", "", "application version affected")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringArrayVar(&steps, "step", []string{""}, "reproduction step (repeatable)")
	cmd.Flags().StringSliceVar(&d.Attachments, "attachment", nil, "attachment file name (repeatable)")
	return cmd
}

func runBugCreate(cmd *cobra.Command, d bug.Draft) error {
	_, store, err := connectFromConfig(cmd)
	if err != nil {
		return err
	}

	b, err := store.Create(cmd.Context(), d)
	if err != nil {
		return explain(err)
	}
	log.WithField("bug", b.ID).Debug("bug created")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created bug %s\n", b.ID)
	fmt.Fprintf(out, "Priority: %s  Status: %s\n", b.Priority, b.Status)
	return nil
}

func newBugListCmd() *cobra.Command {
	var search, status, priority, sort string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bugs",
		Long:  "Lists bugs matching the search text and filters, sorted newest first by default.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := query.ParseParams(search, status, priority, sort)
			if err != nil {
				return err
			}
			return runBugList(cmd, p)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "q", "", "case-insensitive text to find in title or description")
	cmd.Flags().StringVar(&status, "status", query.All, "status filter (all, open, in-progress, testing, resolved, closed)")
	cmd.Flags().StringVar(&priority, "priority", query.All, "priority filter (all, low, medium, high, critical)")
	cmd.Flags().StringVar(&sort, "sort", string(query.DefaultSort), "sort key (updatedAt, createdAt, priority)")
	return cmd
}

func runBugList(cmd *cobra.Command, p query.Params) error {
	_, store, err := connectFromConfig(cmd)
	if err != nil {
		return err
	}
	bugs, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	found, err := query.Run(bugs, p)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(found) == 0 {
		fmt.Fprintln(out, "No bugs found.")
		return nil
	}
	printBugTable(out, found, time.Now())
	fmt.Fprintf(out, "\n%d of %d bugs\n", len(found), len(bugs))
	return nil
}

func newBugShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a bug with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := connectFromConfig(cmd)
			if err != nil {
				return err
			}
			b, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printBug(cmd.OutOrStdout(), b)
			return nil
		},
	}
}

func newBugCommentCmd() *cobra.Command {
	var author, message string

	cmd := &cobra.Command{
		Use:   "comment <id>",
		Short: "Add a comment to a bug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := connectFromConfig(cmd)
			if err != nil {
				return err
			}
			c, err := store.AppendComment(cmd.Context(), args[0], author, message)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added comment %s to %s\n", c.ID, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "comment author")
	cmd.Flags().StringVarP(&message, "message", "m", "", "comment text (required)")
	cmd.MarkFlagRequired("message")
	return cmd
}

// resolveStatus accepts a status name or a quick action such as "resolve".
func resolveStatus(raw string) (models.Status, error) {
	if s, err := bug.ActionStatus(raw); err == nil {
		return s, nil
	}
	return models.ParseStatus(raw)
}

func newBugStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status|action>",
		Short: "Change a bug's status",
		Long: "Moves a bug to a new status. Accepts a status (open, in-progress, testing, resolved, closed) " +
			"or a quick action (start, test, resolve, close, reopen).",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := resolveStatus(args[1])
			if err != nil {
				return err
			}
			_, store, err := connectFromConfig(cmd)
			if err != nil {
				return err
			}
			b, err := store.SetStatus(cmd.Context(), args[0], status)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", b.ID, b.Status)
			return nil
		},
	}
}

func newBugEditCmd() *cobra.Command {
	var (
		title, description, priority, category string
		assignee, environment, version, due     string
		clearDue                                bool
		tags, steps, attachments                []string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a bug's fields",
		Long:  "Updates only the fields whose flags are given. Status and comments have their own commands.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p bug.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				p.Title = &title
			}
			if flags.Changed("description") {
				p.Description = &description
			}
			if flags.Changed("priority") {
				pr := models.Priority(priority)
				p.Priority = &pr
			}
			if flags.Changed("category") {
				p.Category = &category
			}
			if flags.Changed("assignee") {
				p.Assignee = &assignee
			}
			if flags.Changed("environment") {
				p.Environment = &environment
			}
			if flags.Changed("app-version") {
				p.Version = &version
			}
			if flags.Changed("due") {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				p.DueDate = d
			}
			p.ClearDueDate = clearDue
			if flags.Changed("tag") {
				p.Tags = &tags
			}
			if flags.Changed("step") {
				p.ReproductionSteps = &steps
			}
			if flags.Changed("attachment") {
				p.Attachments = &attachments
			}
			if p.Empty() {
				return fmt.Errorf("nothing to change: pass at least one field flag")
			}
			return runBugEdit(cmd, args[0], p)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().StringVar(&assignee, "assignee", "", "new assignee (empty to unassign)")
	cmd.Flags().StringVar(&environment, "environment", "", "new environment")
	cmd.Flags().StringVar(&version, "app-version", "", "new affected version")
	cmd.Flags().StringVar(&due, "due", "", "new due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "replace tags (repeatable)")
	cmd.Flags().StringArrayVar(&steps, "step", nil, "replace reproduction steps (repeatable)")
	cmd.Flags().StringSliceVar(&attachments, "attachment", nil, "replace attachments (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func runBugEdit(cmd *cobra.Command, id string, p bug.Patch) error {
	_, store, err := connectFromConfig(cmd)
	if err != nil {
		return err
	}
	b, err := store.Update(cmd.Context(), id, p)
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", b.ID)
	return nil
}
