package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/TWRT/buildtrack/internal/models"
	"github.com/TWRT/buildtrack/internal/service"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newTasksCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and edit tasks through the task API",
	}
	cmd.AddCommand(
		newTasksListCmd(flags),
		newTasksAnalyticsCmd(flags),
		newTasksCreateCmd(flags),
		newTasksUpdateCmd(flags),
		newTasksMoveCmd(flags),
		newTasksDeleteCmd(flags),
		newUsersCmd(flags),
	)
	return cmd
}

type filterFlags struct {
	search   string
	project  string
	status   string
	priority string
	category string
	assignee string
	sortBy   string
	order    string
}

func (f *filterFlags) register(cmd *cobra.Command, withSort bool) {
	cmd.Flags().StringVar(&f.search, "search", "", "Case-insensitive match on task name")
	cmd.Flags().StringVar(&f.project, "project", "", "Project id")
	cmd.Flags().StringVar(&f.status, "status", "", "Status filter")
	cmd.Flags().StringVar(&f.priority, "priority", "", "Priority filter")
	cmd.Flags().StringVar(&f.category, "category", "", "Category filter")
	cmd.Flags().StringVar(&f.assignee, "assignee", "", "Assignee user id")
	if withSort {
		cmd.Flags().StringVar(&f.sortBy, "sort", "", "Sort field: name|priority|status|startDate|endDate|percentageComplete")
		cmd.Flags().StringVar(&f.order, "order", "asc", "Sort order: asc|desc")
	}
}

func (f *filterFlags) view() (models.Criteria, models.SortConfig, error) {
	criteria := models.Criteria{
		Search:     f.search,
		ProjectID:  f.project,
		Status:     models.Status(f.status),
		Priority:   models.Priority(f.priority),
		Category:   models.Category(f.category),
		AssigneeID: f.assignee,
	}
	if criteria.Status != "" && !criteria.Status.Valid() {
		return criteria, models.SortConfig{}, fmt.Errorf("unknown status %q", f.status)
	}
	if criteria.Priority != "" && !criteria.Priority.Valid() {
		return criteria, models.SortConfig{}, fmt.Errorf("unknown priority %q", f.priority)
	}
	if criteria.Category != "" && !criteria.Category.Valid() {
		return criteria, models.SortConfig{}, fmt.Errorf("unknown category %q", f.category)
	}

	sortCfg := models.SortConfig{}
	if f.sortBy != "" {
		sortCfg.By = models.SortField(f.sortBy)
		switch sortCfg.By {
		case models.SortByName, models.SortByPriority, models.SortByStatus,
			models.SortByStartDate, models.SortByEndDate, models.SortByPercentageComplete:
		default:
			return criteria, sortCfg, fmt.Errorf("unknown sort field %q", f.sortBy)
		}
		sortCfg.Order = models.SortOrder(f.order)
		if sortCfg.Order != models.SortAsc && sortCfg.Order != models.SortDesc {
			return criteria, sortCfg, fmt.Errorf("unknown sort order %q", f.order)
		}
	}
	return criteria, sortCfg, nil
}

func newTasksListCmd(flags *globalFlags) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, sortCfg, err := filters.view()
			if err != nil {
				return err
			}
			svc, closeFn, err := flags.boardService()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.FetchAll(cmd.Context(), criteria, sortCfg); err != nil {
				return err
			}
			tasks := svc.Snapshot().Tasks()
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
				return nil
			}
			return printTasks(cmd.OutOrStdout(), tasks)
		},
	}
	filters.register(cmd, true)
	return cmd
}

func newTasksAnalyticsCmd(flags *globalFlags) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show task counts and completion figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, _, err := filters.view()
			if err != nil {
				return err
			}
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			apiClient, err := apiClientFor(cfg)
			if err != nil {
				return err
			}

			a, err := apiClient.GetAnalytics(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			return printAnalytics(cmd.OutOrStdout(), a)
		},
	}
	filters.register(cmd, false)
	return cmd
}

type draftFlags struct {
	name        string
	description string
	status      string
	priority    string
	category    string
	start       string
	end         string
	project     string
	percentage  int
	hours       float64
	assignees   []string
}

func (d *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.name, "name", "", "Task name")
	cmd.Flags().StringVar(&d.description, "description", "", "Task description")
	cmd.Flags().StringVar(&d.status, "status", "", "Initial status")
	cmd.Flags().StringVar(&d.priority, "priority", "", "Priority: low|medium|high|critical")
	cmd.Flags().StringVar(&d.category, "category", "", "Category")
	cmd.Flags().StringVar(&d.start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&d.end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&d.project, "project", "", "Project id")
	cmd.Flags().IntVar(&d.percentage, "percent", 0, "Percentage complete")
	cmd.Flags().Float64Var(&d.hours, "hours", 0, "Estimated hours")
	cmd.Flags().StringArrayVar(&d.assignees, "assignee", nil, "Assignee as user:role (repeatable)")
}

// apply copies the flags the user actually set onto draft.
func (d *draftFlags) apply(cmd *cobra.Command, draft *models.TaskDraft) error {
	changed := cmd.Flags().Changed

	if changed("name") {
		draft.Name = d.name
	}
	if changed("description") {
		draft.Description = d.description
	}
	if changed("status") {
		status, err := models.ParseStatus(d.status)
		if err != nil {
			return err
		}
		draft.Status = status
	}
	if changed("priority") {
		draft.Priority = models.Priority(d.priority)
	}
	if changed("category") {
		draft.Category = models.Category(d.category)
	}
	if changed("start") {
		t, err := parseDate("start", d.start)
		if err != nil {
			return err
		}
		draft.StartDate = t
	}
	if changed("end") {
		t, err := parseDate("end", d.end)
		if err != nil {
			return err
		}
		draft.EndDate = t
	}
	if changed("project") {
		draft.Project = d.project
	}
	if changed("percent") {
		draft.PercentageComplete = d.percentage
	}
	if changed("hours") {
		draft.EstimatedHours = d.hours
	}
	if changed("assignee") {
		draft.Assignees = nil
		for _, raw := range d.assignees {
			a, err := parseAssignee(raw)
			if err != nil {
				return err
			}
			draft.Assignees = append(draft.Assignees, a)
		}
	}
	return nil
}

func newTasksCreateCmd(flags *globalFlags) *cobra.Command {
	var fields draftFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var draft models.TaskDraft
			if err := fields.apply(cmd, &draft); err != nil {
				return err
			}
			svc, closeFn, err := flags.boardService()
			if err != nil {
				return err
			}
			defer closeFn()

			task, err := svc.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s %q [%s]\n", task.ID, task.Name, task.Status)
			return nil
		},
	}
	fields.register(cmd)
	return cmd
}

func newTasksUpdateCmd(flags *globalFlags) *cobra.Command {
	var fields draftFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := flags.boardService()
			if err != nil {
				return err
			}
			defer closeFn()

			existing, err := loadTask(cmd, svc, args[0])
			if err != nil {
				return err
			}
			draft := models.DraftFromTask(existing)
			if err := fields.apply(cmd, &draft); err != nil {
				return err
			}

			task, err := svc.Update(cmd.Context(), existing.ID, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s %q [%s]\n", task.ID, task.Name, task.Status)
			return nil
		},
	}
	fields.register(cmd)
	return cmd
}

func newTasksMoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Change the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := models.ParseStatus(args[1])
			if err != nil {
				return err
			}
			svc, closeFn, err := flags.boardService()
			if err != nil {
				return err
			}
			defer closeFn()

			if _, err := loadTask(cmd, svc, args[0]); err != nil {
				return err
			}
			if err := svc.ChangeStatus(cmd.Context(), args[0], status); err != nil {
				return err
			}

			task, ok := svc.Snapshot().Get(args[0])
			switch {
			case !ok:
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s is no longer on the board\n", args[0])
			case task.Status != status:
				fmt.Fprintf(cmd.OutOrStdout(), "Status change was not accepted. Task %s is %s\n", task.ID, task.Status)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s %q is now %s\n", task.ID, task.Name, task.Status)
			}
			return nil
		},
	}
}

func newTasksDeleteCmd(flags *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := flags.boardService()
			if err != nil {
				return err
			}
			defer closeFn()

			if _, err := loadTask(cmd, svc, args[0]); err != nil {
				return err
			}

			confirm := promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
			if yes {
				confirm = func(string) bool { return true }
			}
			deleted, err := svc.Delete(cmd.Context(), args[0], confirm)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func newUsersCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users that can be assigned to tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			apiClient, err := apiClientFor(cfg)
			if err != nil {
				return err
			}
			users, err := apiClient.GetUsers(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Name, u.Email)
			}
			return w.Flush()
		},
	}
}

// loadTask fetches the full board and returns the task with id.
func loadTask(cmd *cobra.Command, svc *service.BoardService, id string) (models.Task, error) {
	if err := svc.FetchAll(cmd.Context(), models.Criteria{}, models.SortConfig{}); err != nil {
		return models.Task{}, err
	}
	task, ok := svc.Snapshot().Get(id)
	if !ok {
		return models.Task{}, &models.NotFoundError{Message: fmt.Sprintf("task %s not found", id)}
	}
	return task, nil
}

func promptConfirm(in io.Reader, out io.Writer) service.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		return response == "y" || response == "yes"
	}
}

func parseDate(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s date %q, expected YYYY-MM-DD", flag, value)
	}
	return &t, nil
}

func parseAssignee(raw string) (models.DraftAssignee, error) {
	user, role, ok := strings.Cut(raw, ":")
	if !ok {
		role = string(models.RoleWorker)
	}
	a := models.DraftAssignee{User: strings.TrimSpace(user), Role: models.AssigneeRole(strings.TrimSpace(role))}
	if a.User == "" {
		return a, fmt.Errorf("invalid assignee %q, expected user:role", raw)
	}
	if !a.Role.Valid() {
		return a, fmt.Errorf("invalid assignee role %q", role)
	}
	return a, nil
}

func printTasks(out io.Writer, tasks []models.Task) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPRIORITY\tPROJECT\tDUE\tDONE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d%%\n",
			t.ID,
			t.Name,
			t.Status,
			t.Priority,
			t.Project.ID,
			formatDate(t.EndDate),
			t.PercentageComplete,
		)
	}
	return w.Flush()
}

func printAnalytics(out io.Writer, a *models.Analytics) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total\t%d\n", a.TotalTasks)
	fmt.Fprintf(w, "Not started\t%d\n", a.NotStartedTasks)
	fmt.Fprintf(w, "In progress\t%d\n", a.InProgressTasks)
	fmt.Fprintf(w, "On hold\t%d\n", a.OnHoldTasks)
	fmt.Fprintf(w, "Completed\t%d\n", a.CompletedTasks)
	fmt.Fprintf(w, "Cancelled\t%d\n", a.CancelledTasks)
	fmt.Fprintf(w, "Overdue\t%d\n", a.OverdueTasks)
	fmt.Fprintf(w, "Completion rate\t%.2f%%\n", a.CompletionRate)
	fmt.Fprintf(w, "Avg completion\t%.1f days\n", a.AverageCompletionTime)
	return w.Flush()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}
