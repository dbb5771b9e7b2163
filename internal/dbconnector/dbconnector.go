package dbconnector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Ayman482/nile-dose-cafe-website/internal/clock"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const sqlitePrefix = "sqlite://"

type DBConnector struct {
	DB    *gorm.DB
	node  *snowflake.Node
	clock clock.Clock
}

// OpenDBConnect opens postgres for a regular DSN and sqlite for "sqlite://path".
func OpenDBConnect(dsn string, node *snowflake.Node, clk clock.Clock) (*DBConnector, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required")
	}

	var dialector gorm.Dialector
	isSQLite := strings.HasPrefix(dsn, sqlitePrefix)
	if isSQLite {
		dialector = sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix))
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if isSQLite {
		// sqlite allows one writer; a single connection queues transactions instead of failing with SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return NewDBConnector(db, node, clk), nil
}

func NewDBConnector(db *gorm.DB, node *snowflake.Node, clk clock.Clock) *DBConnector {
	if clk == nil {
		clk = clock.Real{}
	}
	return &DBConnector{DB: db, node: node, clock: clk}
}

func (dbConnector *DBConnector) isPostgres() bool {
	return dbConnector.DB.Dialector.Name() == "postgres"
}

// DBInitialize applies the SQL migrations on postgres and AutoMigrate elsewhere.
func (dbConnector *DBConnector) DBInitialize() error {
	if dbConnector.isPostgres() {
		sqlDB, err := dbConnector.DB.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	return dbConnector.DB.AutoMigrate(
		&User{},
		&LoyaltyAccount{},
		&LoyaltyTransaction{},
		&Reward{},
		&CateringMenuItem{},
		&CateringOrder{},
		&CateringOrderItem{},
	)
}

func (dbConnector *DBConnector) Ping(ctx context.Context) error {
	sqlDB, err := dbConnector.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (dbConnector *DBConnector) Close() error {
	sqlDB, err := dbConnector.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DeleteAllData empties every table. Used by the integration tests.
func (dbConnector *DBConnector) DeleteAllData(ctx context.Context) error {
	tables := []string{
		"catering_order_items",
		"catering_orders",
		"catering_menu",
		"loyalty_transactions",
		"loyalty_points",
		"loyalty_rewards",
		"users",
	}
	return dbConnector.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
