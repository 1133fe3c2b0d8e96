// Command fastie serves the application and runs its maintenance tasks.
//
//	fastie serve
//	fastie make:crud post -fields title:string,body:text
//	fastie db:migrate
//	fastie route:list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	userapp "github.com/km-arc/fastie/app"
	fapp "github.com/km-arc/fastie/framework/app"
	"github.com/km-arc/fastie/framework/config"
	"github.com/km-arc/fastie/framework/container"
	"github.com/km-arc/fastie/framework/database"
	"github.com/km-arc/fastie/framework/logging"
	"github.com/km-arc/fastie/framework/scaffold"
)

var errUsage = errors.New("usage")

type command struct {
	usage string
	run   func(ctx context.Context, args []string, out io.Writer) error
}

var commands = map[string]command{
	"serve":           {"Start the HTTP server", serve},
	"version":         {"Print the framework version", func(_ context.Context, _ []string, out io.Writer) error { _, err := fmt.Fprintln(out, "fastie", fapp.Version); return err }},
	"route:list":      {"List mounted controllers and routes", routeList},
	"make:controller": {"Create a controller (-resource for index/show/destroy)", makeController},
	"make:service":    {"Create a service", makeSimple("make:service", (*scaffold.Generator).Service)},
	"make:repository": {"Create a repository", makeSimple("make:repository", (*scaffold.Generator).Repository)},
	"make:schema":     {"Create request schemas (-fields name:type,...)", makeWithFields("make:schema", (*scaffold.Generator).Schema)},
	"make:model":      {"Create a model (-fields name:type,...)", makeWithFields("make:model", (*scaffold.Generator).Model)},
	"make:crud":       {"Create model, schema, repository, service, controller and migration", makeWithFields("make:crud", (*scaffold.Generator).CRUD)},
	"make:migration":  {"Create an up/down migration pair (-table to create a table)", makeMigration},
	"db:migrate":      {"Apply pending migrations", dbCommand("db:migrate", func(m *database.Migrator, _ int) error { return m.Up() })},
	"db:rollback":     {"Roll back migrations (-steps n)", dbCommand("db:rollback", func(m *database.Migrator, steps int) error { return m.Down(steps) })},
	"db:reset":        {"Roll back every migration", dbCommand("db:reset", func(m *database.Migrator, _ int) error { return m.Reset() })},
	"db:status":       {"Show the current schema version", dbStatus},
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "fastie:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	return cmd.run(ctx, args[1:], out)
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: fastie <command> [arguments]")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", name, commands[name].usage)
	}
	_ = tw.Flush()
}

// ── Application ───────────────────────────────────────────────────────────────

func newApplication() (*fapp.Application, error) {
	a, err := fapp.New()
	if err != nil {
		return nil, err
	}
	if err := a.Register(container.ProviderFunc(userapp.Register)); err != nil {
		return nil, err
	}
	a.Routes(userapp.Routes)
	return a, nil
}

func serve(ctx context.Context, args []string, _ io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.String("port", "", "override APP_PORT")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApplication()
	if err != nil {
		return err
	}
	if *port != "" {
		a.Config().App.Port = *port
	}
	return a.Run(ctx)
}

func routeList(_ context.Context, _ []string, out io.Writer) error {
	a, err := newApplication()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Boot(); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PREFIX\tCONTROLLER\tGROUP\tMIDDLEWARE\tTAGS")
	for _, m := range a.Composer().Mounts() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.Prefix, m.Controller, m.Group,
			strings.Join(m.Middlewares, ","), strings.Join(m.Tags, ","))
	}
	fmt.Fprintln(tw)

	routes, err := a.Router().Routes()
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "METHOD\tPATTERN\tMIDDLEWARE")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Method, r.Pattern, r.Middlewares)
	}
	return tw.Flush()
}

// ── Generators ────────────────────────────────────────────────────────────────

// parseNamed accepts the positional name before or after the flags.
func parseNamed(fs *flag.FlagSet, args []string) (string, error) {
	var name string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if name == "" {
		name = fs.Arg(0)
	}
	if name == "" {
		return "", fmt.Errorf("%w: %s needs a name", errUsage, fs.Name())
	}
	return name, nil
}

func generator(root string) (*scaffold.Generator, error) {
	return scaffold.New(root, zap.NewNop())
}

func report(out io.Writer, files []string, err error) error {
	for _, f := range files {
		fmt.Fprintln(out, "created", f)
	}
	return err
}

func makeController(_ context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("make:controller", flag.ContinueOnError)
	root := fs.String("root", ".", "module root")
	resource := fs.Bool("resource", false, "generate index/show/destroy")
	name, err := parseNamed(fs, args)
	if err != nil {
		return err
	}
	g, err := generator(*root)
	if err != nil {
		return err
	}
	files, err := g.Controller(name, *resource)
	return report(out, files, err)
}

func makeSimple(cmd string, gen func(*scaffold.Generator, string) ([]string, error)) func(context.Context, []string, io.Writer) error {
	return func(_ context.Context, args []string, out io.Writer) error {
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		root := fs.String("root", ".", "module root")
		name, err := parseNamed(fs, args)
		if err != nil {
			return err
		}
		g, err := generator(*root)
		if err != nil {
			return err
		}
		files, err := gen(g, name)
		return report(out, files, err)
	}
}

func makeWithFields(cmd string, gen func(*scaffold.Generator, string, []scaffold.Field) ([]string, error)) func(context.Context, []string, io.Writer) error {
	return func(_ context.Context, args []string, out io.Writer) error {
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		root := fs.String("root", ".", "module root")
		spec := fs.String("fields", "", "name:type,... (string, text, int, bool, float, time)")
		name, err := parseNamed(fs, args)
		if err != nil {
			return err
		}
		fields, err := scaffold.ParseFields(*spec)
		if err != nil {
			return err
		}
		g, err := generator(*root)
		if err != nil {
			return err
		}
		files, err := gen(g, name, fields)
		return report(out, files, err)
	}
}

func makeMigration(_ context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("make:migration", flag.ContinueOnError)
	root := fs.String("root", ".", "module root")
	table := fs.String("table", "", "create this table")
	spec := fs.String("fields", "", "columns for -table, name:type,...")
	name, err := parseNamed(fs, args)
	if err != nil {
		return err
	}
	fields, err := scaffold.ParseFields(*spec)
	if err != nil {
		return err
	}
	g, err := generator(*root)
	if err != nil {
		return err
	}
	files, err := g.Migration(name, *table, fields)
	return report(out, files, err)
}

// ── Database ──────────────────────────────────────────────────────────────────

func openMigrator() (*database.Migrator, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.FromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	m, err := database.NewMigrator(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return m, log, nil
}

func dbCommand(cmd string, fn func(m *database.Migrator, steps int) error) func(context.Context, []string, io.Writer) error {
	return func(_ context.Context, args []string, out io.Writer) error {
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		steps := fs.Int("steps", 1, "migrations to roll back")
		if err := fs.Parse(args); err != nil {
			return err
		}
		m, log, err := openMigrator()
		if err != nil {
			return err
		}
		defer log.Sync()

		err = fn(m, *steps)
		return errors.Join(err, m.Close())
	}
}

func dbStatus(_ context.Context, _ []string, out io.Writer) error {
	m, log, err := openMigrator()
	if err != nil {
		return err
	}
	defer log.Sync()

	v, dirty, err := m.Version()
	if err != nil {
		return errors.Join(err, m.Close())
	}
	fmt.Fprintf(out, "version: %d\ndirty:   %t\n", v, dirty)
	return m.Close()
}
