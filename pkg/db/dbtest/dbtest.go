// Package dbtest builds an in-memory sqlite database with the commerce schema
// for repository and service tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

// schema mirrors pkg/migrate/migrations using sqlite types. Money is stored as
// TEXT so decimals round-trip exactly.
var schema = []string{
	`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit TEXT NOT NULL DEFAULT 'kg',
  price TEXT NOT NULL,
  available_stock INTEGER NOT NULL DEFAULT 0 CHECK (available_stock >= 0),
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE carts (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  closed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_carts_active_owner ON carts (owner_id) WHERE status = 'active';`,
	`CREATE TABLE cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL REFERENCES carts (id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price_at_add TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_cart_items_cart_product ON cart_items (cart_id, product_id);`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  total_price TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  rejection_reason TEXT,
  delivery_address TEXT NOT NULL,
  delivery_date DATETIME,
  payment_method TEXT NOT NULL,
  notes TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE transactions (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'initiated',
  payment_reference TEXT,
  refund_reason TEXT,
  failure_reason TEXT,
  confirmed_at DATETIME,
  settled_at DATETIME,
  refunded_at DATETIME,
  failed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_transactions_live_order ON transactions (order_id) WHERE status IN ('initiated', 'confirmed', 'settled');`,
	`CREATE UNIQUE INDEX ux_transactions_payment_reference ON transactions (payment_reference) WHERE payment_reference IS NOT NULL;`,
	`CREATE TABLE ledger_entries (
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  actor_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount TEXT NOT NULL,
  metadata TEXT,
  created_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_ledger_entries_transaction_type ON ledger_entries (transaction_id, type);`,
	`CREATE TABLE audit_logs (
  id TEXT PRIMARY KEY,
  actor_id TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  action_type TEXT NOT NULL,
  description TEXT NOT NULL,
  table_name TEXT NOT NULL,
  record_id TEXT NOT NULL,
  old_values TEXT,
  new_values TEXT,
  metadata TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  event TEXT NOT NULL,
  payload TEXT,
  read_at DATETIME,
  created_at DATETIME
);`,
}

// Open returns a fresh, isolated sqlite database with the commerce tables.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:harvest_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// Shared-cache memory databases disappear once the last connection closes.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

// SeedProduct inserts an active product owned by sellerID.
func SeedProduct(t testing.TB, conn *gorm.DB, sellerID uuid.UUID, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:             uuid.New(),
		SellerID:       sellerID,
		Name:           "Yam tubers",
		Unit:           "kg",
		Price:          decimal.RequireFromString(price),
		AvailableStock: stock,
		Status:         enums.ProductStatusActive,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}
