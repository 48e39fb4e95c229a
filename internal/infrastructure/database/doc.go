// Package database opens the adapter's SQLite file and applies schema
// migrations.
//
// Migrations are supplied as an fs.FS by the package that owns the schema,
// usually an embed.FS:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, history.Migrations); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql, and are additive only.
package database
