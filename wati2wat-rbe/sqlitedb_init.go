package main

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wati2wat/model"
)

var DB *gorm.DB = nil

func migrate() error {
	err := DB.AutoMigrate(&model.CompileEntry{})
	if err != nil {
		return err
	}
	err = DB.AutoMigrate(&model.PassEntry{})
	if err != nil {
		return err
	}
	return nil
}

func OpenDb(dbPath string) (err error) {
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}
	err = migrate()
	return
}

func CloseDb() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
