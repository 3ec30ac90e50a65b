package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"accounts/api/internal/config"
	"accounts/api/internal/database"
	"accounts/api/internal/log"
	"accounts/api/internal/repository"
)

func main() {
	cmd, operands, err := ParseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := log.New(cfg.Environment, "accountsctl")

	if cmd == CommandMigrate {
		if err := database.RunMigrations(cfg.Postgres.DSN); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("schema up to date")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	roles := repository.NewRoleRepository(pool)

	switch cmd {
	case CommandGrantAdmin:
		err = grantAdmin(ctx, users, roles, operands[0], os.Stdout)
	case CommandListAdmins:
		err = listAdmins(ctx, roles, os.Stdout)
	}
	if err != nil {
		logger.Error().Err(err).Str("command", string(cmd)).Msg("command failed")
		pool.Close()
		os.Exit(1)
	}
}
