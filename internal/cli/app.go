package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/dmitrijs2005/timekeeper/internal/backup"
	"github.com/dmitrijs2005/timekeeper/internal/common"
	"github.com/dmitrijs2005/timekeeper/internal/config"
	"github.com/dmitrijs2005/timekeeper/internal/logging"
	"github.com/dmitrijs2005/timekeeper/internal/services"
	"github.com/dmitrijs2005/timekeeper/internal/storage"
)

// ErrWrongPassword is returned when the unlock prompt gets a bad password.
var ErrWrongPassword = fmt.Errorf("%w: wrong password", common.ErrNotAuthenticated)

// App carries the wiring shared by all commands of one invocation.
type App struct {
	args   []string
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
	loc    *time.Location
	spin   bool

	cfg        *config.Config
	log        logging.Logger
	repos      *storage.Repositories
	store      *services.Coordinator
	activities services.ActivityService
	categories services.CategoryService
	tags       services.TagService
	backup     *backup.Service
}

// NewApp prepares an App for args. Nothing is opened until a command runs.
func NewApp(args []string, in io.Reader, out, errOut io.Writer) *App {
	return &App{
		args:   args,
		reader: bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		now:    time.Now,
		loc:    time.Local,
	}
}

// Open loads configuration, opens the store and wires the services.
func (a *App) Open(ctx context.Context) error {
	if a.repos != nil {
		return nil
	}

	cfg, err := config.LoadConfig(a.args)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.NewTextLogger(a.errOut, cfg.LogLevel)

	repos, err := storage.InitDatabase(ctx, cfg.DBPath, cfg.BusyTimeout)
	if err != nil {
		return err
	}
	a.repos = repos

	a.store = services.NewCoordinator(repos.Records, repos.Settings, cfg.KDFIterations, a.log)
	if err := a.store.Load(ctx); err != nil {
		return err
	}

	a.activities = services.NewActivityService(a.store)
	a.categories = services.NewCategoryService(a.store)
	a.tags = services.NewTagService(a.store)
	a.backup = backup.NewService(a.store, a.log)

	a.log.Debug(ctx, "store opened", "db", cfg.DBPath, "mode", a.store.Mode().String())
	return nil
}

// Close locks the store and releases the database.
func (a *App) Close() error {
	if a.store != nil {
		a.store.Lock()
	}
	if a.repos == nil {
		return nil
	}
	err := a.repos.Close()
	a.repos = nil
	return err
}

// unlock prompts for the password when the store is locked.
func (a *App) unlock(ctx context.Context) error {
	if a.store.Mode() != services.ModeLocked {
		return nil
	}

	pw, err := getPassword(a.errOut, "Password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	ok, err := a.store.VerifyPassword(ctx, pw)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}
	return nil
}

// getPassword is an indirection used to facilitate testing.
var getPassword = GetPassword

// startSpinner shows msg with a spinner on stderr when it is a terminal.
// The returned func stops it.
func (a *App) startSpinner(msg string) func() {
	if !a.spin {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.errOut))
	s.Suffix = " " + msg
	if err := s.Color("cyan"); err != nil {
		a.log.Debug(context.Background(), "spinner color", "error", err)
	}
	s.Start()
	return s.Stop
}

func (a *App) success(format string, args ...any) {
	fmt.Fprintln(a.out, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func (a *App) warn(format string, args ...any) {
	fmt.Fprintln(a.out, color.YellowString("!")+" "+fmt.Sprintf(format, args...))
}

func (a *App) hint(format string, args ...any) {
	fmt.Fprintln(a.out, color.CyanString("→")+" "+fmt.Sprintf(format, args...))
}

// describeError adds a next step for errors a user can act on.
func describeError(err error) string {
	msg := color.RedString("✗") + " " + err.Error()
	switch {
	case errors.Is(err, ErrWrongPassword):
		msg += "\n" + color.CyanString("→") + " Try again; the password cannot be recovered"
	case errors.Is(err, common.ErrAlreadyEncrypted):
		msg += "\n" + color.CyanString("→") + " Run " + color.YellowString("timekeeper encryption disable") + " first to change the password"
	case errors.Is(err, common.ErrImport):
		msg += "\n" + color.CyanString("→") + " Nothing was changed"
	}
	return msg
}
