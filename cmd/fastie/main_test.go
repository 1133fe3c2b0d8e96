package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/fastie/framework/scaffold"
)

func moduleRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/shop\n"), 0o644))
	return root
}

func TestRun_Usage(t *testing.T) {
	assert.ErrorIs(t, run(context.Background(), nil, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, run(context.Background(), []string{"make:everything"}, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, run(context.Background(), []string{"make:service", "-root", t.TempDir()}, &bytes.Buffer{}), errUsage)

	var out bytes.Buffer
	printUsage(&out)
	assert.Contains(t, out.String(), "db:rollback")
	assert.Contains(t, out.String(), "make:crud")
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &out))
	assert.Contains(t, out.String(), "fastie ")
}

func TestRun_MakeController_NameBeforeOrAfterFlags(t *testing.T) {
	root := moduleRoot(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"make:controller", "order", "-resource", "-root", root}, &out))
	assert.Contains(t, out.String(), filepath.Join("app", "controllers", "order.go"))

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"make:controller", "-root", root, "invoice"}, &out))
	assert.FileExists(t, filepath.Join(root, "app", "controllers", "invoice.go"))

	err := run(context.Background(), []string{"make:controller", "order", "-root", root}, &out)
	assert.ErrorIs(t, err, scaffold.ErrExists)
}

func TestRun_MakeCrudAndMigration(t *testing.T) {
	root := moduleRoot(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"make:crud", "product", "-fields", "title:string,price:float", "-root", root}, &out))
	assert.FileExists(t, filepath.Join(root, "app", "models", "product.go"))
	assert.FileExists(t, filepath.Join(root, "app", "services", "product_service.go"))

	matches, err := filepath.Glob(filepath.Join(root, "database", "migrations", "*_create_products_table.up.sql"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	require.NoError(t, run(context.Background(), []string{"make:migration", "add_sku", "-root", root}, &out))
	matches, _ = filepath.Glob(filepath.Join(root, "database", "migrations", "*_add_sku.*.sql"))
	assert.Len(t, matches, 2)

	err = run(context.Background(), []string{"make:model", "thing", "-fields", "x:blob", "-root", root}, &out)
	var fe *scaffold.FieldError
	assert.ErrorAs(t, err, &fe)
}
