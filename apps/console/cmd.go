package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/association"
	"github.com/givehub/console/core/auth"
	"github.com/givehub/console/core/user"
	"github.com/givehub/console/core/view"
	consolesvc "github.com/givehub/console/services/console"
	logsvc "github.com/givehub/console/services/logger"
	"github.com/givehub/console/storage/remote"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	screenKey = "screen"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
	// errFailed means the failure was already shown to the user.
	errFailed = errors.New("operation failed")
)

type commandLine struct {
	conf   *core.Config
	out    io.Writer
	errOut io.Writer

	// flags
	apiURL string
	output string
	debug  bool
	quiet  bool

	// set up before each command
	logger   core.Logger
	store    *remote.CookieStore
	client   *remote.Client
	nav      *consolesvc.Navigator
	notifier core.Notifier
	session  *remote.SessionRepository
	guard    *auth.Guard
	usrSvc   *user.Service
	assocSvc *association.Service
}

func newCommandLine(conf *core.Config, out, errOut io.Writer) *commandLine {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &commandLine{conf: conf, out: out, errOut: errOut}
}

// run executes args (program name first) like os.Args.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 0 {
		args = args[1:]
	}
	if len(args) == 0 {
		_ = root.Usage()
		return errHelp
	}
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "givehub",
		Short: "GiveHub console - donation platform back office",
		Long: `givehub talks to the GiveHub API on behalf of a logged-in account.
Each command is one screen: it loads its data, applies the requested change once the
server confirms it and prints the resulting list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cli.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return cli.saveSession()
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&cli.apiURL, "api", cli.conf.API.BaseURL, "GiveHub API base URL")
	flags.StringVarP(&cli.output, "output", "o", outputTable, "Output format: table|json")
	flags.BoolVar(&cli.debug, "debug", cli.conf.Debug, "Print debug logs")
	flags.BoolVarP(&cli.quiet, "quiet", "q", false, "Do not print notices")

	root.AddCommand(
		cli.loginCmd(),
		cli.logoutCmd(),
		cli.signupCmd(),
		cli.whoamiCmd(),
		cli.usersCmd(),
		cli.associationsCmd(),
		cli.dashboardCmd(),
	)
	return root
}

func (cli *commandLine) setup(cmd *cobra.Command) error {
	if cli.output != outputTable && cli.output != outputJSON {
		return errors.Errorf("unknown output format %q (want %s or %s)", cli.output, outputTable, outputJSON)
	}
	cli.conf.Debug = cli.debug
	cli.logger = logsvc.NewRollbarLogger(log.New(cli.errOut, "GIVEHUB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), cli.conf)

	screen := "/"
	for c := cmd; c != nil; c = c.Parent() {
		if s, ok := c.Annotations[screenKey]; ok {
			screen = s
			break
		}
	}
	cli.store = remote.NewCookieStore(cli.conf.SessionFile)
	cli.nav = consolesvc.NewNavigator(screen, cli.store, cli.errOut)
	cli.notifier = consolesvc.NewNotifier(cli.errOut, cli.quiet)

	client, err := remote.NewClient(cli.apiURL,
		remote.WithNavigator(cli.nav),
		remote.WithLogger(cli.logger),
		remote.WithTimeout(cli.conf.API.Timeout),
	)
	if err != nil {
		return errors.Wrap(err, "setting up API client")
	}
	if err := cli.store.Load(client); err != nil {
		return err
	}
	cli.client = client
	cli.session = remote.NewSessionRepository(client)
	cli.guard = auth.NewGuard(auth.NewAccessor(cli.session, cli.logger))
	cli.usrSvc = user.NewService(remote.NewUserRepository(client), cli.guard)
	cli.assocSvc = association.NewService(remote.NewAssociationRepository(client), cli.guard, cli.logger)
	return nil
}

// saveSession persists refreshed session cookies unless the session was dropped.
func (cli *commandLine) saveSession() error {
	if cli.client == nil || cli.nav.Location() == core.LoginPath {
		return nil
	}
	return cli.store.Save(cli.client)
}

// fail shows err to the user and returns errFailed.
func (cli *commandLine) fail(err error) error {
	cli.logger.Debug("command failed", err)
	cli.notifier.Notify(core.NoticeError, view.MessageFor(err))
	return errFailed
}

// failView returns errFailed once the view has shown its last error.
func (cli *commandLine) failView(err error) error {
	switch errors.Cause(err) {
	case view.ErrInFlight, view.ErrDisposed, view.ErrNotMounted, view.ErrNotLoaded, view.ErrAlreadyMounted:
		return err
	}
	return errFailed
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.errOut, prompt)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.errOut)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

func (cli *commandLine) renderJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encoding output")
}

// render prints v as JSON or data (header first) as a table.
func (cli *commandLine) render(v interface{}, data pterm.TableData) error {
	if cli.output == outputJSON {
		return cli.renderJSON(v)
	}
	if len(data) == 1 {
		pterm.Info.WithWriter(cli.out).Println("Nothing to show.")
		return nil
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(cli.out).WithData(data).Render()
}

func (cli *commandLine) renderDetails(v interface{}, rows [][2]string) error {
	if cli.output == outputJSON {
		return cli.renderJSON(v)
	}
	data := make(pterm.TableData, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r[0], r[1]})
	}
	return pterm.DefaultTable.WithWriter(cli.out).WithData(data).Render()
}

func parseID(args []string) (int, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
