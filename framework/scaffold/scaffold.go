// Package scaffold generates application source files from templates.
//
// Generators never overwrite: a target that already exists fails with
// ErrExists and nothing else of that call is written.
package scaffold

import (
	"bufio"
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("scaffold").ParseFS(templateFS, "templates/*.tmpl"))

var (
	ErrExists      = errors.New("scaffold: file already exists")
	ErrInvalidName = errors.New("scaffold: name must start with a letter and contain only letters, digits, '_', '-' or spaces")
	ErrNoModule    = errors.New("scaffold: no module line in go.mod")
)

// FieldError reports an unparsable "name:type" field.
type FieldError struct{ Field string }

func (e *FieldError) Error() string {
	return fmt.Sprintf("scaffold: bad field %q (want name:type, type one of string, text, int, bool, float, time)", e.Field)
}

// Generator writes files below Root.
type Generator struct {
	Root   string
	Module string
	log    *zap.Logger
	now    func() time.Time
}

// New returns a generator for the module rooted at root. The module path is
// read from root/go.mod.
func New(root string, log *zap.Logger) (*Generator, error) {
	module, err := modulePath(filepath.Join(root, "go.mod"))
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{Root: root, Module: module, log: log.Named("scaffold"), now: time.Now}, nil
}

// WithClock fixes the time used for migration versions.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// data is what every template receives.
type data struct {
	Module   string
	Name     Name
	Fields   []Field
	Resource bool
	Table    string
	HasTime  bool
}

func (g *Generator) data(name string, fields []Field) (data, error) {
	n, err := ParseName(name)
	if err != nil {
		return data{}, err
	}
	d := data{Module: g.Module, Name: n, Fields: fields, Table: n.Plural}
	for _, f := range fields {
		if f.GoType == "time.Time" {
			d.HasTime = true
		}
	}
	return d, nil
}

// ── Generators ────────────────────────────────────────────────────────────────

// Controller writes app/controllers/<name>.go. A resource controller gets
// index/show/destroy wired to the matching service.
func (g *Generator) Controller(name string, resource bool) ([]string, error) {
	d, err := g.data(name, nil)
	if err != nil {
		return nil, err
	}
	d.Resource = resource
	return g.render([]file{{"controller.go.tmpl", filepath.Join("app", "controllers", d.Name.Snake+".go")}}, d)
}

// Service writes app/services/<name>_service.go.
func (g *Generator) Service(name string) ([]string, error) {
	d, err := g.data(name, nil)
	if err != nil {
		return nil, err
	}
	return g.render([]file{{"service.go.tmpl", filepath.Join("app", "services", d.Name.Snake+"_service.go")}}, d)
}

// Repository writes app/repositories/<name>_repository.go.
func (g *Generator) Repository(name string) ([]string, error) {
	d, err := g.data(name, nil)
	if err != nil {
		return nil, err
	}
	return g.render([]file{{"repository.go.tmpl", filepath.Join("app", "repositories", d.Name.Snake+"_repository.go")}}, d)
}

// Schema writes app/schemas/<name>.go.
func (g *Generator) Schema(name string, fields []Field) ([]string, error) {
	d, err := g.data(name, fields)
	if err != nil {
		return nil, err
	}
	return g.render([]file{{"schema.go.tmpl", filepath.Join("app", "schemas", d.Name.Snake+".go")}}, d)
}

// Model writes app/models/<name>.go.
func (g *Generator) Model(name string, fields []Field) ([]string, error) {
	d, err := g.data(name, fields)
	if err != nil {
		return nil, err
	}
	return g.render([]file{{"model.go.tmpl", filepath.Join("app", "models", d.Name.Snake+".go")}}, d)
}

// Migration writes an up/down pair named <timestamp>_<name>. With a table
// the pair creates and drops that table.
func (g *Generator) Migration(name, table string, fields []Field) ([]string, error) {
	d, err := g.data(name, fields)
	if err != nil {
		return nil, err
	}
	if table != "" {
		t, err := ParseName(table)
		if err != nil {
			return nil, err
		}
		d.Table = t.Snake
		d.Name, _ = ParseName("create_" + t.Snake + "_table")
	} else {
		d.Table = ""
	}

	base := g.now().UTC().Format("20060102150405") + "_" + d.Name.Snake
	dir := filepath.Join("database", "migrations")
	return g.render([]file{
		{"migration.up.sql.tmpl", filepath.Join(dir, base+".up.sql")},
		{"migration.down.sql.tmpl", filepath.Join(dir, base+".down.sql")},
	}, d)
}

// CRUD writes the model, schema, repository, service, resource controller
// and create-table migration of one entity.
func (g *Generator) CRUD(name string, fields []Field) ([]string, error) {
	d, err := g.data(name, fields)
	if err != nil {
		return nil, err
	}
	d.Resource = true
	files := []file{
		{"model.go.tmpl", filepath.Join("app", "models", d.Name.Snake+".go")},
		{"schema.go.tmpl", filepath.Join("app", "schemas", d.Name.Snake+".go")},
		{"repository.go.tmpl", filepath.Join("app", "repositories", d.Name.Snake+"_repository.go")},
		{"service.go.tmpl", filepath.Join("app", "services", d.Name.Snake+"_service.go")},
		{"controller.go.tmpl", filepath.Join("app", "controllers", d.Name.Snake+".go")},
	}
	written, err := g.render(files, d)
	if err != nil {
		return nil, err
	}
	mig, err := g.Migration(name, d.Name.Plural, fields)
	if err != nil {
		return written, err
	}
	return append(written, mig...), nil
}

// ── Rendering ─────────────────────────────────────────────────────────────────

type file struct {
	template string
	path     string
}

// render executes every template first and only writes when all targets
// are free, so a failed call leaves no partial set behind.
func (g *Generator) render(files []file, d data) ([]string, error) {
	bodies := make([][]byte, len(files))
	for i, f := range files {
		target := filepath.Join(g.Root, f.path)
		if _, err := os.Stat(target); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrExists, f.path)
		}
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, f.template, d); err != nil {
			return nil, fmt.Errorf("scaffold: render %s: %w", f.template, err)
		}
		bodies[i] = buf.Bytes()
	}

	written := make([]string, 0, len(files))
	for i, f := range files {
		if err := g.write(f.path, bodies[i]); err != nil {
			return written, err
		}
		written = append(written, f.path)
		g.log.Info("File created", zap.String("path", f.path))
	}
	return written, nil
}

func (g *Generator) write(rel string, body []byte) error {
	target := filepath.Join(g.Root, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("scaffold: %w", err)
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, rel)
	}
	if err != nil {
		return fmt.Errorf("scaffold: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		return fmt.Errorf("scaffold: write %s: %w", rel, err)
	}
	return f.Close()
}

func modulePath(gomod string) (string, error) {
	f, err := os.Open(gomod)
	if err != nil {
		return "", fmt.Errorf("scaffold: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.Trim(strings.TrimSpace(rest), `"`), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("scaffold: %w", err)
	}
	return "", ErrNoModule
}
