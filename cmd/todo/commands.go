package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"todo/internal/query"
	"todo/internal/session"
	"todo/internal/task"
	"todo/internal/ui"
)

func parseID(cmd *cli.Command) (int, error) {
	arg := cmd.Args().First()
	if arg == "" {
		return 0, errors.New("missing task id")
	}
	id, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func overviewAction(ctx context.Context, cmd *cli.Command) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ov := query.SelectOverview(a.list.All(), query.OverviewOptions{
		PrioritySize:  a.cfg.Overview.PrioritySize,
		DiscoverySize: a.cfg.Overview.DiscoverySize,
	})
	_, err = fmt.Fprint(a.out, ui.RenderOverview(ov, a.theme))
	return err
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Browse and edit tasks interactively",
		ArgsUsage: "[query]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			raw := strings.Join(cmd.Args().Slice(), " ")
			a.logger.Info("search", "query", query.Parse(raw).String())
			s, km, err := a.newSession(session.WithQuery(raw))
			if err != nil {
				return err
			}
			return a.runSession(s, km)
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Aliases:   []string{"a"},
		Usage:     "Add a task, in the editor unless --quick",
		ArgsUsage: "[title]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quick", Aliases: []string{"q"}, Usage: "Save the title without opening the editor"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			title := strings.Join(cmd.Args().Slice(), " ")
			if cmd.Bool("quick") {
				return quickAdd(cmd, title)
			}

			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			s, km, err := a.newSession()
			if err != nil {
				return err
			}
			s.StartNew(task.New(title, a.now()))
			s.CloseAfterEdit()
			return a.runSession(s, km)
		},
	}
}

func quickAdd(cmd *cli.Command, title string) error {
	if err := task.ValidateTitle(title); err != nil {
		return err
	}
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.list.Insert(a.list.Create(title, a.now()))
	if err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Added #%d %s\n", t.ID, t.Title)
	return err
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Aliases:   []string{"e"},
		Usage:     "Open one task in the editor",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := parseID(cmd)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			s, km, err := a.newSession()
			if err != nil {
				return err
			}
			if err := s.StartEdit(id); err != nil {
				return err
			}
			s.CloseAfterEdit()
			return a.runSession(s, km)
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List tasks as a table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "todo, inprogress, done or archived"},
			&cli.StringFlag{Name: "category", Usage: "Category, case-insensitive"},
			&cli.StringFlag{Name: "priority", Usage: "p0 to p5"},
			&cli.StringFlag{Name: "tags", Usage: "Comma separated tags that must all be present"},
			&cli.BoolFlag{Name: "all", Usage: "Include archived tasks"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f := task.Filter{
				Category: cmd.String("category"),
				All:      cmd.Bool("all"),
			}
			if v := cmd.String("status"); v != "" {
				s, err := task.ParseStatus(v)
				if err != nil {
					return err
				}
				f.Status = &s
			}
			if v := cmd.String("priority"); v != "" {
				p, err := task.ParsePriority(v)
				if err != nil {
					return err
				}
				f.Priority = &p
			}
			if v := cmd.String("tags"); v != "" {
				tags, err := task.NormalizeTags(v)
				if err != nil {
					return err
				}
				f.Tags = tags
			}

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			_, err = fmt.Fprint(a.out, ui.RenderTable(a.list.Filter(f), a.theme))
			return err
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Aliases:   []string{"u"},
		Usage:     "Change fields of one task",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title"},
			&cli.StringFlag{Name: "status"},
			&cli.StringFlag{Name: "priority"},
			&cli.StringFlag{Name: "tags", Usage: "Edits such as +urgent,-later"},
			&cli.StringFlag{Name: "category", Usage: "Empty clears"},
			&cli.StringFlag{Name: "project", Usage: "Empty clears"},
			&cli.StringFlag{Name: "notes", Usage: "Empty clears"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := parseID(cmd)
			if err != nil {
				return err
			}
			p, err := patchFromFlags(cmd)
			if err != nil {
				return err
			}

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.list.Apply(id, p, a.now()); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "Updated #%d\n", id)
			return err
		},
	}
}

func patchFromFlags(cmd *cli.Command) (task.Patch, error) {
	var p task.Patch
	str := func(name string) *string {
		if !cmd.IsSet(name) {
			return nil
		}
		v := cmd.String(name)
		return &v
	}
	p.Title = str("title")
	p.Category = str("category")
	p.Project = str("project")
	p.Notes = str("notes")
	p.TagEdits = cmd.String("tags")
	if v := str("status"); v != nil {
		s, err := task.ParseStatus(*v)
		if err != nil {
			return p, err
		}
		p.Status = &s
	}
	if v := str("priority"); v != nil {
		pr, err := task.ParsePriority(*v)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	return p, nil
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete one task, or every task of a category or status",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category"},
			&cli.StringFlag{Name: "status"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			byCategory, byStatus := cmd.String("category"), cmd.String("status")
			selectors := 0
			for _, set := range []bool{cmd.Args().Len() > 0, byCategory != "", byStatus != ""} {
				if set {
					selectors++
				}
			}
			if selectors != 1 {
				return errors.New("give exactly one of <id>, --category or --status")
			}

			var status task.Status
			if byStatus != "" {
				s, err := task.ParseStatus(byStatus)
				if err != nil {
					return err
				}
				status = s
			}
			var id int
			if cmd.Args().Len() > 0 {
				var err error
				if id, err = parseID(cmd); err != nil {
					return err
				}
			}

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			n := 1
			switch {
			case id != 0:
				if err := a.list.Delete(id); err != nil {
					return err
				}
			case byCategory != "":
				n = a.list.DeleteByCategory(byCategory)
			default:
				n = a.list.DeleteByStatus(status)
			}
			if err := a.save(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "Deleted %d task(s)\n", n)
			return err
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show every field of one task",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := parseID(cmd)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.list.Get(id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.out, ui.RenderDetail(t, a.theme, a.now()))
			return err
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Count tasks by status, priority and category",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			_, err = fmt.Fprint(a.out, ui.RenderStats(a.list.Stats(), a.theme))
			return err
		},
	}
}
