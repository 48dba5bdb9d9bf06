package database

import (
	"fmt"
	"hoa-http-service/internal/domain/models"
	Logger "hoa-http-service/pkg/logger"

	"gorm.io/gorm"
)

// Tables in drop order
var tables = []string{
	"job_runs", "owner_board_members", "board_member_roles", "owner_surveys", "surveys",
	"documents", "announcements", "owner_messages", "messages", "payments", "credit_cards",
	"charges", "assessment_rates", "violation_types", "accounts", "owner_properties",
	"properties", "notification_preferences", "owners",
}

// Migrate runs the migration mode: "auto" (default), "alter" or "drop"
func Migrate(db *gorm.DB, mode string) error {
	switch mode {
	case "drop":
		Logger.Warning("running in drop mode, every table will be dropped and recreated")
		return DropAndRecreateTables(db)
	case "alter":
		Logger.Info("running in alter mode, columns will be altered to match the models")
		return AlterMigrate(db)
	default:
		Logger.Info("running in auto mode, only new tables and columns are added")
		return AutoMigrate(db)
	}
}

// AutoMigrate creates missing tables and columns
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	Logger.Info("database migration completed")
	return nil
}

// AlterMigrate alters existing columns to match the models and drops
// columns the models no longer declare
func AlterMigrate(db *gorm.DB) error {
	if err := AutoMigrate(db); err != nil {
		return err
	}

	migrator := db.Migrator()
	for _, model := range models.AllModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("parse model: %w", err)
		}

		columns, err := migrator.ColumnTypes(model)
		if err != nil {
			return fmt.Errorf("column types of %s: %w", stmt.Schema.Table, err)
		}

		for _, column := range columns {
			field := stmt.Schema.LookUpField(column.Name())
			if field == nil {
				Logger.Warning("dropping column %s.%s, not declared by the model", stmt.Schema.Table, column.Name())
				if err := migrator.DropColumn(model, column.Name()); err != nil {
					Logger.Error("drop column %s.%s: %v", stmt.Schema.Table, column.Name(), err)
				}
				continue
			}
			if field.DBName == "" || field.PrimaryKey {
				continue
			}
			if err := migrator.AlterColumn(model, field.Name); err != nil {
				Logger.Error("alter column %s.%s: %v", stmt.Schema.Table, field.DBName, err)
			}
		}
	}

	return nil
}

// DropAndRecreateTables drops every table and recreates the schema
func DropAndRecreateTables(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, table := range tables {
		Logger.Info("dropping table: %s", table)
		if err := migrator.DropTable(table); err != nil {
			Logger.Error("drop table %s: %v", table, err)
		}
	}

	return AutoMigrate(db)
}
