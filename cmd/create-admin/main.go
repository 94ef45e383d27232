package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"redeemr/rewards-service/internal/auth"
	"redeemr/rewards-service/internal/bootstrap"
	"redeemr/rewards-service/internal/config"
	"redeemr/rewards-service/internal/logging"
	"redeemr/rewards-service/internal/service"
	"redeemr/rewards-service/internal/store"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Administrator email")
	name := fs.String("name", "Administrator", "Display name for a new account")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	driver := fs.String("driver", envOr("DB_DRIVER", config.DriverSQLite), "Database driver: sqlite or postgres")
	dbPath := fs.String("db", envOr("SQLITE_PATH", "rewards.db"), "SQLite database file")
	dsn := fs.String("dsn", os.Getenv("DB_DSN"), "Postgres connection string")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(stdout, "Usage: create-admin -email <email> [-password <password>] [-name <name>] [-driver sqlite|postgres] [-db <path>] [-dsn <url>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	cfg := config.Config{
		DBDriver:          *driver,
		DatabaseURL:       *dsn,
		SQLitePath:        *dbPath,
		ResetTokenBackend: config.ResetBackendDB,
	}

	ctx := context.Background()
	logger := logging.New("warn", "text")
	logger.SetOutput(stderr)
	st, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	existing, err := st.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	switch {
	case err == nil:
		if existing.IsSuperuser {
			fmt.Fprintf(stdout, "User %s is already an administrator\n", existing.Email)
			return nil
		}
		if _, err := st.SetSuperuser(ctx, existing.ID, true); err != nil {
			return fmt.Errorf("failed to promote user: %w", err)
		}
		fmt.Fprintf(stdout, "User %s promoted to administrator\n", existing.Email)
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("failed to look up user: %w", err)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	svc := service.New(st, service.Options{Hasher: auth.NewHasher(0), Logger: logger})
	user, err := svc.Accounts.Register(ctx, service.RegisterInput{
		Email:       *email,
		Password:    password,
		Name:        *name,
		IsSuperuser: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "Administrator %s created with ID %s\n", user.Email, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
