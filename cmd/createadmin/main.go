// Command createadmin bootstraps the very first user account. It refuses to
// run against a database that already has users, so it cannot be used to
// sneak extra accounts into a live installation.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"authd/internal/config"
	"authd/internal/hash"
	"authd/internal/models"
	"authd/internal/repositories/repomanager"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	usersRepo := rm.Users(db)

	n, err := usersRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("error counting users: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("refusing to run: %d user(s) already exist", n)
	}

	reader := bufio.NewReader(os.Stdin)

	email, err := prompt(reader, "Email: ")
	if err != nil {
		return err
	}
	name, err := prompt(reader, "Name: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	passwordHash, err := hash.NewManager([]byte(cfg.PepperSecretKey)).Hash(password)
	if err != nil {
		return err
	}

	user, err := usersRepo.Create(ctx, &models.User{
		Email:        email,
		Name:         name,
		IsActive:     true,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}

	fmt.Printf("created user %d (%s)\n", user.ID, user.Email)
	return nil
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("value must not be empty")
	}
	return value, nil
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("error reading password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("password must not be empty")
	}
	return string(raw), nil
}
