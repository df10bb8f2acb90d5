package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/metalagman/taskflow/internal/task"
	"github.com/metalagman/taskflow/internal/view"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func taskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(taskAddCmd(opts))
	cmd.AddCommand(taskListCmd(opts))
	cmd.AddCommand(taskShowCmd(opts))
	cmd.AddCommand(taskEditCmd(opts))
	cmd.AddCommand(taskStatusCmd(opts))
	cmd.AddCommand(taskDoneCmd(opts))
	cmd.AddCommand(taskRemoveCmd(opts))
	cmd.AddCommand(taskExportCmd(opts))
	return cmd
}

func taskAddCmd(opts *rootOptions) *cobra.Command {
	var (
		description string
		status      string
		priority    string
		due         string
		tags        string
		useAI       bool
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, closeFn, err := openBoard(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			d := b.NewDraft(strings.Join(args, " "))
			d.Description = description
			if status != "" {
				if err := d.Status.UnmarshalText([]byte(status)); err != nil {
					return err
				}
			}
			if priority != "" {
				if err := d.Priority.UnmarshalText([]byte(priority)); err != nil {
					return err
				}
			}
			if d.DueDate, err = task.ParseDue(due); err != nil {
				return err
			}
			d.Tags = task.ParseTags(tags)

			if useAI {
				enhanced, err := b.Enhance(ctx, d)
				if err != nil {
					log.Warn().Err(err).Msg("AI suggestion failed, saving the task as entered")
				}
				d = enhanced
			}

			created, err := b.Create(ctx, d)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return err
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description (markdown)")
	cmd.Flags().StringVar(&status, "status", "", "initial status (todo|in_progress|done)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "priority (low|medium|high)")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "comma-separated tags")
	cmd.Flags().BoolVar(&useAI, "ai", false, "fill description, priority and tags with the AI advisor")
	return cmd
}

func taskListCmd(opts *rootOptions) *cobra.Command {
	var (
		status   string
		priority string
		search   string
		sortBy   string
		sortDir  string
		stats    bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, closeFn, err := openBoard(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			f := opts.cfg.Filter()
			f.Status = status
			f.Priority = priority
			f.Search = search
			if sortBy != "" {
				f.SortBy = view.SortKey(sortBy)
			}
			if sortDir != "" {
				f.SortDir = view.Direction(sortDir)
			}
			items, err := b.View(f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if stats {
				renderStats(out, b.Stats())
			}
			return renderList(out, items)
		},
	}
	cmd.Flags().StringVar(&status, "status", view.All, "filter by status (all|todo|in_progress|done)")
	cmd.Flags().StringVar(&priority, "priority", view.All, "filter by priority (all|low|medium|high)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive title search")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort key (created_at|due_date|priority)")
	cmd.Flags().StringVar(&sortDir, "dir", "", "sort direction (asc|desc)")
	cmd.Flags().BoolVar(&stats, "stats", false, "print counts by status")
	return cmd
}

func taskShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := openBoard(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := b.Task(args[0])
			if err != nil {
				return err
			}
			return renderTask(cmd.OutOrStdout(), t)
		},
	}
}

func taskEditCmd(opts *rootOptions) *cobra.Command {
	var (
		title       string
		description string
		status      string
		priority    string
		due         string
		tags        string
		addTags     []string
		removeTags  []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit task fields",
		Long:  "Edit task fields. Only flags that are given change; --due \"\" clears the due date and --tags replaces all tags; --add-tag and --remove-tag adjust them.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var p task.Patch
			if flags.Changed("title") {
				p.Title = &title
			}
			if flags.Changed("description") {
				p.Description = &description
			}
			if flags.Changed("status") {
				var s task.Status
				if err := s.UnmarshalText([]byte(status)); err != nil {
					return err
				}
				p.Status = &s
			}
			if flags.Changed("priority") {
				var pr task.Priority
				if err := pr.UnmarshalText([]byte(priority)); err != nil {
					return err
				}
				p.Priority = &pr
			}
			if flags.Changed("due") {
				d, err := task.ParseDue(due)
				if err != nil {
					return err
				}
				p.DueDate = d
				p.ClearDueDate = d == nil
			}
			if flags.Changed("tags") {
				p.Tags = task.ParseTags(tags)
				p.SetTags = true
			}
			adjustTags := len(addTags) > 0 || len(removeTags) > 0
			if p.Empty() && !adjustTags {
				return fmt.Errorf("nothing to change: pass at least one field flag")
			}

			b, closeFn, err := openBoard(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			if adjustTags {
				if !p.SetTags {
					current, err := b.Task(args[0])
					if err != nil {
						return err
					}
					p.Tags = current.Tags
				}
				p.Tags = task.MergeTags(p.Tags, addTags...)
				for _, tag := range removeTags {
					p.Tags = task.RemoveTag(p.Tags, strings.TrimSpace(tag))
				}
				p.SetTags = true
			}

			updated, err := b.Update(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			return renderTask(cmd.OutOrStdout(), updated)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority")
	cmd.Flags().StringVar(&due, "due", "", "new due date, empty to clear")
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "replacement comma-separated tags")
	cmd.Flags().StringArrayVar(&addTags, "add-tag", nil, "tag to add (repeatable)")
	cmd.Flags().StringArrayVar(&removeTags, "remove-tag", nil, "tag to remove (repeatable)")
	return cmd
}

func taskStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <todo|in_progress|done>",
		Short: "Change the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var s task.Status
			if err := s.UnmarshalText([]byte(args[1])); err != nil {
				return err
			}
			return changeStatus(cmd, opts, args[0], s)
		},
	}
}

func taskDoneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return changeStatus(cmd, opts, args[0], task.StatusDone)
		},
	}
}

func changeStatus(cmd *cobra.Command, opts *rootOptions, id string, s task.Status) error {
	b, closeFn, err := openBoard(cmd.Context(), opts.cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	if _, err := b.ChangeStatus(cmd.Context(), id, s); err != nil {
		return err
	}
	log.Info().Str("task_id", id).Str("status", string(s)).Msg("status changed")
	return nil
}

func taskRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := openBoard(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			for _, id := range args {
				if err := b.Delete(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func taskExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all tasks as YAML or JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, closeFn, err := openBoard(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := exportTasks(w, format, b.Tasks()); err != nil {
				return err
			}
			log.Debug().Str("format", format).Str("output", output).Msg("tasks exported")
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "export format (yaml|json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	return cmd
}

func exportTasks(w io.Writer, format string, items []task.Task) error {
	doc := map[string]any{"tasks": items}
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format %q (allowed: yaml, json)", format)
	}
}
