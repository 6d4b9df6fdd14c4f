package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
	require.NoError(t, ValidateEmbedded())

	names, err := Files()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		require.Less(t, names[i-1], names[i], "migrations must sort by version")
	}
}

func TestCommerceMigrationsDeclareConcurrencyGuards(t *testing.T) {
	content := readAll(t)

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_active_owner ON carts (owner_id) WHERE status = 'active'",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_items_cart_product ON cart_items (cart_id, product_id)",
		"CONSTRAINT chk_products_available_stock CHECK (available_stock >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_transactions_live_order",
		"WHERE status IN ('initiated', 'confirmed', 'settled')",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_transactions_payment_reference",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_ledger_entries_transaction_type ON ledger_entries (transaction_id, type)",
		"CONSTRAINT chk_orders_rejection_reason",
	}
	for _, sub := range checks {
		require.Contains(t, content, sub)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Delivery Slots!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_delivery_slots.sql"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "-- +goose Up")
	require.Contains(t, string(b), "-- +goose Down")
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestCreateSQLMigrationRefusesOutOfOrderVersion(t *testing.T) {
	dir := t.TempDir()
	future := time.Now().UTC().Add(24 * time.Hour).Format(versionLayout)
	require.NoError(t, os.WriteFile(filepath.Join(dir, future+"_later.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	_, err := CreateSQLMigration(dir, "earlier")
	require.Error(t, err)
}

func TestValidateRejectsDuplicateVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	require.Error(t, Validate(fsys))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "create_things.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, ValidateDir(dir))
}

func TestValidateDirRequiresDownSection(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_things.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644))
	require.Error(t, ValidateDir(dir))
}

func readAll(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	err := fs.WalkDir(Migrations, embeddedDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(Migrations, path)
		if err != nil {
			return err
		}
		b.Write(data)
		b.WriteByte('\n')
		return nil
	})
	require.NoError(t, err)
	return b.String()
}
