package db

import (
	"fmt"
	"time"

	"directchat/internal/config"
	"directchat/internal/models"
	"directchat/internal/store"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect 按 driver 打开数据库。Postgres 带简单重试，用于等待容器就绪。
func Connect(driver, dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch driver {
	case config.DriverSQLite:
		gdb, err := gorm.Open(sqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		// sqlite 只允许单写者
		sqlDB.SetMaxOpenConns(1)
		return gdb, nil
	case config.DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	var gdb *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		gdb, err = gorm.Open(postgres.Open(dsn), gcfg)
		if err == nil {
			sqlDB, err2 := gdb.DB()
			if err2 == nil {
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetMaxOpenConns(20)
				sqlDB.SetConnMaxLifetime(time.Hour)
				return gdb, nil
			}
			err = err2
		}
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, err
}

// Migrate 为三个集合各建一张 (seq, data) 表。
func Migrate(gdb *gorm.DB) error {
	for _, name := range []string{store.UsersCollection, store.ChatsCollection, store.MessagesCollection} {
		if err := gdb.Table(name).AutoMigrate(&Row{}); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

// NewGateway 返回基于 gorm 的存储网关，Close 会关闭底层连接池。
func NewGateway(gdb *gorm.DB) *store.Gateway {
	g := store.NewGateway(
		NewCollection[models.User](gdb, store.UsersCollection),
		NewCollection[models.Chat](gdb, store.ChatsCollection),
		NewCollection[models.Message](gdb, store.MessagesCollection),
	)
	return g.WithCloser(func() error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
}
