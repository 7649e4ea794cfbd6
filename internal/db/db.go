package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Init 建立数据库连接并完成建表迁移
func Init(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=songlin port=5432 sslmode=disable"
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	log.Println("Database connection established")

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	log.Println("Database migration completed")
	return gdb, nil
}

// Migrate 执行建表迁移（postgres 与测试用 sqlite 共用）
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&ItemRow{},
		&ProfileRow{},
		&UserVotesRow{},
	)
}
