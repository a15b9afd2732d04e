package main

import (
	"flag"
	"fmt"
	"os"

	"yamdb/internal/app"
	"yamdb/internal/config"
)

// @title                       YaMDb accounts API
// @version                     1.0
// @description                 Регистрация, код подтверждения по email и выдача JWT.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	path := flag.String("config", "", "path to config.yaml (default $YAMDB_CONFIG or "+config.DefaultPath+")")
	flag.Parse()

	if err := app.Run(config.Path(*path)); err != nil {
		fmt.Fprintln(os.Stderr, "yamdb:", err)
		os.Exit(1)
	}
}
