/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/jungle"
	"github.com/tomoncle/jungle/config"
	"github.com/tomoncle/jungle/database"
	_ "github.com/tomoncle/jungle/migrations"
	_ "github.com/tomoncle/jungle/models"
	"github.com/tomoncle/jungle/telemetry"
	"github.com/tomoncle/jungle/utils"
	"github.com/tomoncle/jungle/web"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "jungle",
		Usage:   "hello world service backed by migrated jungles and animals tables",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"JUNGLE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending schema migrations",
				Action: migrate,
			},
			{
				Name:  "rollback",
				Usage: "revert applied schema migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to revert, newest first"},
					&cli.StringFlag{Name: "target", Usage: "revert exactly this migration version"},
				},
				Action: rollback,
			},
			{
				Name:   "status",
				Usage:  "list migrations and whether they are applied",
				Action: status,
			},
			{
				Name:  "seed",
				Usage: "execute the SQL seed files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "env", Usage: "seed environment, defaults to the configured one"},
				},
				Action: seed,
			},
		},
	}
}

// setup loads the configuration and applies its logging settings.
func setup(c *cli.Context) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	utils.ConfigureConsoleLogFormat(cfg.Log.Format)
	utils.ConfigureLogLevel(cfg.Log.Level)
	return cfg, utils.GetLogger("MAIN"), nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	if _, err := database.InitDB(c.Context, &cfg.Database); err != nil {
		return err
	}
	defer func() { _ = database.CloseDB() }()

	tel, err := telemetry.NewTelemetry(logger)
	if err != nil {
		return err
	}
	defer func() { _ = tel.Shutdown(c.Context) }()

	webLogger := utils.GetLogger("WEB")
	router := web.NewRouter(
		web.NewLimiter(cfg.Server.RPSLimit, cfg.Server.RPSBurst),
		tel,
		webLogger,
		[]web.Handler{
			web.NewHelloHandler(),
			web.NewHealthHandler(nil, nil),
			web.NewJungleHandler(jungle.NewCatalog()),
		},
	)
	logger.WithField("version", version).Info("jungle starting")
	return web.NewServer(router.CreateServer(cfg.Server), webLogger, cfg.Server.ShutdownTimeout).Run(c.Context)
}

// connect opens the database without running migrations on startup.
func connect(c *cli.Context) error {
	cfg, _, err := setup(c)
	if err != nil {
		return err
	}
	_, err = database.InitDatabaseWithOptions(c.Context, &cfg.Database, false)
	return err
}

func migrate(c *cli.Context) error {
	if err := connect(c); err != nil {
		return err
	}
	defer func() { _ = database.CloseDB() }()
	return database.RunMigrations(c.Context)
}

func rollback(c *cli.Context) error {
	if err := connect(c); err != nil {
		return err
	}
	defer func() { _ = database.CloseDB() }()
	if v := c.String("target"); v != "" {
		return database.RollbackMigration(c.Context, v)
	}
	mm, err := database.GetMigrator()
	if err != nil {
		return err
	}
	return mm.Rollback(c.Context, c.Int("steps"))
}

func status(c *cli.Context) error {
	if err := connect(c); err != nil {
		return err
	}
	defer func() { _ = database.CloseDB() }()
	mm, err := database.GetMigrator()
	if err != nil {
		return err
	}

	statuses, err := mm.Status(c.Context)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED\tAPPLIED AT")
	for _, s := range statuses {
		at := "-"
		if s.Applied {
			at = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", s.Version, s.Name, s.Applied, at)
	}
	return w.Flush()
}

func seed(c *cli.Context) error {
	cfg, _, err := setup(c)
	if err != nil {
		return err
	}
	cfg.Database.DataInitConfig.AutoInitOnStartup = false
	if _, err := database.InitDB(c.Context, &cfg.Database); err != nil {
		return err
	}
	defer func() { _ = database.CloseDB() }()
	if env := c.String("env"); env != "" {
		return database.InitDataWithSQL(c.Context, env)
	}
	return database.InitData(c.Context)
}
