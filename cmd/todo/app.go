package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"todo/internal/config"
	"todo/internal/session"
	"todo/internal/storage"
	"todo/internal/task"
	"todo/internal/ui"
)

// app is everything one invocation needs: config, logger, the open store
// and the loaded list.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	store  storage.Store
	list   *task.List
	theme  ui.Theme
	out    io.Writer
	now    func() time.Time

	logFile *os.File
}

// openApp loads config and the task list. Interactive sessions own the
// terminal, so they log to log_file or nowhere.
func openApp(cmd *cli.Command, interactive bool) (*app, error) {
	path := cmd.String("config")
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f := cmd.String("file"); f != "" {
		cfg.TodoPath = f
		cfg.Backend = config.BackendYAML
	}

	a := &app{
		cfg:   cfg,
		theme: ui.NewTheme(cfg.Theme),
		out:   cmd.Root().Writer,
		now:   time.Now,
	}
	if a.out == nil {
		a.out = os.Stdout
	}

	var sink io.Writer = os.Stderr
	if interactive {
		sink = io.Discard
		if cfg.LogFile != "" {
			a.logFile, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log file: %w", err)
			}
			sink = a.logFile
		}
	}
	a.logger = slog.New(slog.NewTextHandler(sink, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	wd, err := os.Getwd()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store, err = storage.Open(cfg, wd)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.list, err = a.store.Load()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.logger.Debug("loaded tasks", "path", a.store.Location(), "tasks", a.list.Len())
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func (a *app) save() error {
	if err := a.store.Save(a.list); err != nil {
		a.logger.Error("save failed", "path", a.store.Location(), "error", err)
		return err
	}
	a.logger.Debug("saved tasks", "path", a.store.Location(), "tasks", a.list.Len())
	return nil
}

func (a *app) keymap() (session.Keymap, error) {
	km, err := session.NewKeymap(a.cfg.Keys)
	if err != nil {
		return session.Keymap{}, fmt.Errorf("config: %w", err)
	}
	return km, nil
}

// newSession builds a session over the loaded list.
func (a *app) newSession(opts ...session.Option) (*session.Session, session.Keymap, error) {
	km, err := a.keymap()
	if err != nil {
		return nil, km, err
	}
	opts = append([]session.Option{session.WithClock(a.now)}, opts...)
	return session.New(a.list.All(), km, opts...), km, nil
}

// runSession runs s in the terminal and flushes once more if it closed
// with unsaved changes.
func (a *app) runSession(s *session.Session, km session.Keymap) error {
	d := session.NewDriver(s, a.list, a.store, session.DriverOptions{
		Autosave: a.cfg.Autosave,
		Logger:   a.logger,
		Now:      a.now,
	})
	a.logger.Info("session started", "path", a.store.Location(), "mode", s.Mode())
	if err := ui.Run(d, a.theme, ui.NewKeyMap(km)); err != nil {
		return err
	}
	if s.Dirty() {
		return a.save()
	}
	return nil
}
