package models

import (
	"fmt"

	"gorm.io/gen"
	"gorm.io/gorm"
)

/*
Query helper generation usage:

Set GENERATE_MODELS=true and start the server against a configured DATABASE_URL. The generator
writes typed query helpers for every table below into ./generated and exits.
*/

// All returns one pointer per persisted entity, in creation order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Quote{},
		&Product{},
		&BlogPost{},
		&UploadedFile{},
	}
}

// GenerateModels writes gorm/gen query helpers for all entities into outPath.
func GenerateModels(db *gorm.DB, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	if outPath == "" {
		outPath = "./generated"
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})

	g.UseDB(db)
	g.ApplyBasic(All()...)
	g.Execute()
	return nil
}
