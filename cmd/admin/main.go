package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"ethos/backend/internal/api/handler"
	"ethos/backend/internal/config"
	"ethos/backend/internal/fieldcrypt"
	"ethos/backend/internal/models"
	"ethos/backend/internal/storage"
	"ethos/backend/internal/thread"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  keygen                          print a fresh CHAT_CIPHER_KEY
  token <id> <role> [ttl_hours]   mint a bearer token (role: reporter|investigator)
  migrate                         create the case and log tables
  thread <case_code>              print the derived state and visible feed of a case`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	cfg := config.Load()

	switch command := os.Args[1]; command {
	case "keygen":
		key, err := fieldcrypt.GenerateKeyHex()
		if err != nil {
			log.Fatalf("Error generating key: %v", err)
		}
		fmt.Println(key)

	case "token":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin token <id> <role> [ttl_hours]")
			os.Exit(1)
		}
		ttl := 72 * time.Hour
		if len(os.Args) > 4 {
			hours, err := strconv.Atoi(os.Args[4])
			if err != nil || hours <= 0 {
				fmt.Println("Invalid ttl. Please provide a positive integer.")
				os.Exit(1)
			}
			ttl = time.Duration(hours) * time.Hour
		}
		token, err := issueToken(cfg, models.Identity{ID: os.Args[2], Role: models.Role(os.Args[3])}, ttl)
		if err != nil {
			log.Fatalf("Error issuing token: %v", err)
		}
		fmt.Println(token)

	case "migrate":
		if err := openStorage(cfg).Migrate(); err != nil {
			log.Fatalf("Error running migrations: %v", err)
		}
		fmt.Println("Migrations complete.")

	case "thread":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin thread <case_code>")
			os.Exit(1)
		}
		cipher, err := fieldcrypt.NewFromHex(cfg.CipherKeyHex, cfg.CipherAlg)
		if err != nil {
			log.Fatalf("Error loading cipher key: %v", err)
		}
		if err := printThread(context.Background(), openStorage(cfg), cipher, os.Args[2]); err != nil {
			log.Fatalf("Error reading thread: %v", err)
		}

	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func openStorage(cfg config.Config) *storage.Service {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	return storage.NewStorageService(db)
}

func issueToken(cfg config.Config, identity models.Identity, ttl time.Duration) (string, error) {
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}
	if identity.ID == "" || !identity.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", identity.Role)
	}
	return handler.NewTokenAuth(cfg.JWTSecret, cfg.JWTIssuer).IssueToken(identity, ttl)
}

func printThread(ctx context.Context, s storage.Storage, cipher *fieldcrypt.Cipher, code string) error {
	c, err := s.FindCaseByCode(ctx, code)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("case %s not found", code)
	}

	rows, err := s.ListMessagesByCase(ctx, c.ID)
	if err != nil {
		return err
	}

	var entries []models.DecryptedMessage
	for _, m := range rows {
		text, err := cipher.Decrypt(m.Body)
		if err != nil {
			fmt.Printf("! entry %s could not be decrypted: %v\n", m.ID, err)
			continue
		}
		entries = append(entries, models.DecryptedMessage{ID: m.ID, CaseID: m.CaseID, SenderRole: m.SenderRole, Text: text, CreatedAt: m.CreatedAt})
	}

	state, feed := thread.Replay(entries)
	fmt.Printf("Case %s (%s), %d log entries\n", c.Code, c.Status, len(rows))
	fmt.Printf("State: %s\n", state.ChatState)
	if state.RequestedAt != nil {
		fmt.Printf("Requested at %s: %q\n", state.RequestedAt.Format(time.RFC3339), state.RequestMessage)
	}
	if state.AcceptedAt != nil {
		fmt.Printf("Accepted at %s\n", state.AcceptedAt.Format(time.RFC3339))
	}
	for role, id := range state.Seen {
		fmt.Printf("Seen by %s up to %s\n", role, id)
	}
	for _, m := range feed {
		fmt.Printf("[%s] %-12s %s\n", m.CreatedAt.Format(time.RFC3339), m.SenderRole, m.Text)
	}
	return nil
}
