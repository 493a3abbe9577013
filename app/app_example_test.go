// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/eldrin-io/parcel"
	"github.com/eldrin-io/parcel/appstate"
	"github.com/eldrin-io/parcel/migrate"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

func Example() {
	sqlDB, err := sql.Open("sqlite", "file:example?mode=memory&cache=shared")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer sqlDB.Close()
	db := bun.NewDB(sqlDB, sqlitedialect.New())

	bridge := BridgeFunc(func(ctx context.Context, props parcel.Props, dbctx *appstate.DBContext) (Handle, error) {
		fmt.Println("mounted with migrations complete:", appstate.MigrationsComplete(dbctx))
		return "renderer", nil
	})

	a := New(
		LogHandler(slog.NewTextHandler(io.Discard, nil)),
		WithBridge(bridge),
		WithMigrations(migrate.File{Name: "20240101_init.sql", Content: "CREATE TABLE notes (id INT)"}),
		OnMigrationsComplete(func(res migrate.Result) {
			fmt.Println("executed:", res.Executed)
		}),
	)

	// The host invokes bootstrap once and only mounts after it completes.
	props := parcel.Props{Name: "notes", DB: db}

	l := a.Lifecycle()
	err = l.Bootstrap.Run(context.Background(), props)
	if err != nil {
		fmt.Println(err)
		return
	}

	err = l.Mount.Run(context.Background(), props)
	if err != nil {
		fmt.Println(err)
		return
	}

	// Output: executed: 1
	// mounted with migrations complete: true
}
