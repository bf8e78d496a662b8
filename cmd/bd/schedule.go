package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
	"brokerdesk/internal/engine"
	"brokerdesk/internal/views"
)

var (
	statusColors = map[domain.ScheduleStatus]*color.Color{
		domain.StatusPending:   color.New(color.FgYellow),
		domain.StatusConfirmed: color.New(color.FgGreen),
		domain.StatusCompleted: color.New(color.FgBlue),
		domain.StatusCancelled: color.New(color.FgRed),
		domain.StatusNoShow:    color.New(color.FgMagenta),
		domain.StatusPostponed: color.New(color.FgCyan),
	}
	propertyColors = map[string]*color.Color{
		domain.PropertyAvailable: color.New(color.FgGreen),
		domain.PropertyReserved:  color.New(color.FgYellow),
		domain.PropertySold:      color.New(color.FgRed),
		domain.PropertyRented:    color.New(color.FgBlue),
	}
	todayColor = color.New(color.Bold, color.Underline)
)

func statusBadge(s domain.ScheduleStatus) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s.Label())
	}
	return string(s)
}

func propertyBadge(s string) string {
	if c, ok := propertyColors[s]; ok {
		return c.Sprint(s)
	}
	return s
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "schedule", Short: "Manage appointments"}
	cmd.AddCommand(scheduleCreateCmd())
	cmd.AddCommand(scheduleStatusCmd())
	cmd.AddCommand(scheduleListCmd())
	cmd.AddCommand(scheduleExportCmd())
	cmd.AddCommand(scheduleImportCmd())
	return cmd
}

func scheduleCreateCmd() *cobra.Command {
	var opts engine.ScheduleCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Book an appointment, optionally recurring",
		Example: `  bd schedule create --date 2024-03-05 --client "Marta Gil" --property <id>
  bd schedule create --date 2024-03-05 --client "Marta Gil" --rrule "FREQ=WEEKLY;COUNT=4"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				opts.ActorID = actor
				created, err := e.CreateSchedule(ctx, opts)
				if err != nil {
					return err
				}
				return printSchedules(created)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Date, "date", "", "date YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.ClientName, "client", "", "client name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "notes")
	cmd.Flags().StringVar(&opts.PropertyID, "property", "", "property id")
	cmd.Flags().StringVar(&opts.Status, "status", "", "initial status (default pending)")
	cmd.Flags().StringVar(&opts.RRule, "rrule", "", "RFC 5545 recurrence rule")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("client")
	return cmd
}

func scheduleStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <schedule-id> <status>",
		Short: "Change appointment status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				s, err := e.UpdateScheduleStatus(ctx, actor, args[0], args[1])
				if err != nil {
					return err
				}
				return printSchedules([]domain.Schedule{s})
			})
		},
	}
}

func scheduleFilterFlags(cmd *cobra.Command, opts *views.ScheduleOptions) {
	cmd.Flags().StringVarP(&opts.Search, "search", "q", "", "search client, description or property")
	cmd.Flags().StringVar(&opts.When, "when", views.WhenAll, "all, upcoming or past")
	cmd.Flags().StringVar(&opts.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&opts.Direction, "dir", "asc", "asc or desc")
}

func scheduleListCmd() *cobra.Command {
	var opts views.ScheduleOptions
	var group bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search, filter and sort appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				items, err := e.ListSchedules(ctx, actor, opts)
				if err != nil {
					return err
				}
				if !group {
					return printSchedules(items)
				}
				groups := views.GroupByDate(items)
				if viper.GetBool("json") {
					return printJSON(groups)
				}
				for _, g := range groups {
					fmt.Println(todayColor.Sprint(g.Date))
					for _, s := range g.Schedules {
						fmt.Printf("  %s  %s%s\n", statusBadge(s.Status), s.ClientName, propertySuffix(s))
					}
				}
				return nil
			})
		},
	}
	scheduleFilterFlags(cmd, &opts)
	cmd.Flags().BoolVar(&group, "group", false, "group by date")
	return cmd
}

func scheduleExportCmd() *cobra.Command {
	var opts views.ScheduleOptions
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export appointments as iCalendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				data, err := e.ExportSchedules(ctx, actor, opts)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					_, err = io.WriteString(os.Stdout, data)
					return err
				}
				return os.WriteFile(out, []byte(data), 0o644)
			})
		},
	}
	scheduleFilterFlags(cmd, &opts)
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file")
	return cmd
}

func scheduleImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.ics>",
		Short: "Import appointments from iCalendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				res, err := e.ImportSchedules(ctx, actor, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("Imported %d appointments, skipped %d, already present %d\n", len(res.Created), res.Skipped, res.Duplicates)
				return nil
			})
		},
	}
}

func printSchedules(items []domain.Schedule) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Date", "Client", "Status", "Property", "Series"})
	for _, s := range items {
		prop := ""
		if s.Property != nil {
			prop = s.Property.Name
		}
		tw.AppendRow(table.Row{s.ID, s.Date, s.ClientName, statusBadge(s.Status), prop, s.SeriesID})
	}
	tw.Render()
	return nil
}

func propertySuffix(s domain.Schedule) string {
	if s.Property == nil {
		return ""
	}
	return " @ " + s.Property.Name
}

func calendarCmd() *cobra.Command {
	var month, status, day string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the month grid of appointments",
		Example: `  bd calendar --month 2024-03
  bd calendar --day 2024-03-05`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				if day != "" {
					items, err := e.DayAgenda(ctx, actor, day)
					if err != nil {
						return err
					}
					return printSchedules(items)
				}
				ym := e.Today().YearMonth()
				if month != "" {
					parsed, err := calendar.ParseYearMonth(month)
					if err != nil {
						return err
					}
					ym = parsed
				}
				view, err := e.MonthCalendar(ctx, actor, ym.Year, ym.Month, status)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(view)
				}
				renderMonth(os.Stdout, view)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month YYYY-MM (default current)")
	cmd.Flags().StringVar(&status, "status", "", "only appointments in this status")
	cmd.Flags().StringVar(&day, "day", "", "show the agenda of one date instead")
	return cmd
}

// renderMonth draws the grid with the appointment count under each day.
func renderMonth(w io.Writer, view engine.MonthView) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(fmt.Sprintf("%s %d", view.Month.Month, view.Month.Year))
	tw.Style().Title.Align = text.AlignCenter
	header := table.Row{}
	for _, wd := range view.Grid.Weekdays {
		header = append(header, wd.String()[:3])
	}
	tw.AppendHeader(header)
	for _, week := range view.Grid.Weeks {
		row := table.Row{}
		for _, d := range week {
			row = append(row, dayCell(view, d))
		}
		tw.AppendRow(row)
		tw.AppendSeparator()
	}
	tw.Render()
	fmt.Fprintf(w, "%d appointments\n", view.Total)
}

func dayCell(view engine.MonthView, day int) string {
	if day == 0 {
		return ""
	}
	cell := view.Days[day-1]
	label := strconv.Itoa(day)
	if cell.Today {
		label = todayColor.Sprint(label)
	}
	if len(cell.Schedules) == 0 {
		return label
	}
	lines := []string{label}
	for _, s := range cell.Schedules {
		c, ok := statusColors[s.Status]
		if !ok {
			c = color.New()
		}
		lines = append(lines, c.Sprint(truncate(s.ClientName, 10)))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Activity log"}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var f engine.EventFilters
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				events, err := e.ListEvents(ctx, actor, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Time", "Type", "Advisor", "Entity", "Payload"})
				for _, evt := range events {
					ts := evt.TS
					if t, err := time.Parse(time.RFC3339, evt.TS); err == nil {
						ts = t.Local().Format("2006-01-02 15:04")
					}
					tw.AppendRow(table.Row{evt.ID, ts, evt.Type, evt.AdvisorID, evt.EntityKind + ":" + evt.EntityID, truncate(evt.Payload, 60)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&f.Limit, "n", "n", 20, "number of events")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	return cmd
}
