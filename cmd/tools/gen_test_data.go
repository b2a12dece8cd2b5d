package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"council-lab/auth"
	"council-lab/classify"
	"council-lab/domain"
	"council-lab/internal"
	"council-lab/repositories"
	"council-lab/runtime"
	handlers "council-lab/specialist"
)

// Prompts cover every keyword group so the seeded store holds records
// from all four specialists.
var seedPrompts = []string{
	"Can you review this react component for me?",
	"I need a better ui for the onboarding flow",
	"Please write the documentation for the billing module",
	"Analyze the performance of our nightly batch",
	"How do I optimize the javascript build and clean up the style?",
}

func main() {
	dbPath := flag.String("db", "./test_data", "Badger directory to seed")
	port := flag.Int("port", 8989, "Debug inspector port")
	conversations := flag.Int("conversations", 3, "Conversations to create")
	rounds := flag.Int("rounds", 4, "Rounds per conversation")
	flag.Parse()

	fmt.Println("🚀 Council-Lab : seeding test data...")

	// Repartir d'un dossier vide pour garder le seed déterministe
	if err := os.RemoveAll(*dbPath); err != nil {
		log.Fatalf("wiping %s failed: %v", *dbPath, err)
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLogger(nil))
	if err != nil {
		log.Fatalf("opening badger failed: %v", err)
	}
	defer db.Close()

	statsProvider := func() map[string]any {
		return map[string]any{
			"Users":         countPrefix(db, "user:"),
			"Conversations": countPrefix(db, "conv:"),
			"Messages":      countPrefix(db, "msg:"),
		}
	}

	// The inspector stays up while the seed runs, then the run pauses
	// until /resume is hit.
	internal.Inspect(db, *port, "/inspect", nil, statsProvider, "msg:", func() {
		if err := seed(db, *conversations, *rounds); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		fmt.Printf("✅ Seeded %d conversations, browse them before resuming\n", *conversations)
	})

	fmt.Println("Done, store left at", *dbPath)
}

// seed creates one account and runs real coordination rounds through
// the dispatcher, so the stored records match what the server writes.
func seed(db *badger.DB, conversations, rounds int) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	users := repositories.NewUserRepository(db)
	store := repositories.NewConversationRepository(db, logger, nil)

	hash, err := auth.HashPassword("Seed123!Complex")
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}
	ownerID, err := users.CreateUser("seed@example.com", hash)
	if err != nil {
		return fmt.Errorf("creating seed user: %w", err)
	}

	classifier, err := classify.NewClassifier()
	if err != nil {
		return fmt.Errorf("building classifier: %w", err)
	}
	dispatcher := runtime.NewDispatcher(logger, classifier, handlers.NewBuiltinRegistry(), store, 0)

	ctx := context.Background()
	for c := range conversations {
		conv, err := store.CreateConversation(ownerID, fmt.Sprintf("Seed conversation %d", c+1))
		if err != nil {
			return fmt.Errorf("creating conversation %d: %w", c+1, err)
		}

		for r := range rounds {
			prompt := seedPrompts[(c+r)%len(seedPrompts)]
			if _, err := store.AppendMessage(domain.Message{
				ConversationID: conv.ID,
				Role:           domain.RoleUser,
				Content:        prompt,
			}); err != nil {
				return fmt.Errorf("appending user record: %w", err)
			}
			if _, err := dispatcher.Coordinate(ctx, conv.ID, prompt); err != nil {
				return fmt.Errorf("round %d of conversation %d: %w", r+1, c+1, err)
			}
		}
	}
	return nil
}

func countPrefix(db *badger.DB, prefix string) int {
	count := 0
	_ = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			count++
		}
		return nil
	})
	return count
}
