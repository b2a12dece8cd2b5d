package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"

	"council-lab/domain"
	"council-lab/repositories"
)

// Read-only console over the store: conversations, messages and
// accounts. Run it next to a live server; the lock guard is bypassed.
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	conversation := flag.String("conversation", "", "Only show messages of this conversation ID")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *conversation != "" {
		printMessages(db, *conversation)
		return
	}

	printConversations(db)
	printMessages(db, "")
	printUsers(db)
}

func printConversations(db *badger.DB) {
	section("CONVERSATIONS")
	table := newTable([]string{"ID", "Title", "Owner", "Messages", "Created"})

	err := scan(db, "conv:", func(key string, val []byte) {
		var conv domain.Conversation
		if err := json.Unmarshal(val, &conv); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			return
		}
		table.Append([]string{
			shorten(conv.ID.String()),
			conv.Title,
			conv.OwnerID,
			strconv.FormatUint(conv.MessageCount, 10),
			conv.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	})
	if err != nil {
		log.Fatal(err)
	}
	table.Render()
}

func printMessages(db *badger.DB, conversationID string) {
	section("MESSAGES")
	table := newTable([]string{"Conversation", "Seq", "Role", "Specialist", "Created", "Content"})

	prefix := "msg:"
	if conversationID != "" {
		prefix = "msg:" + conversationID + ":"
	}

	err := scan(db, prefix, func(key string, val []byte) {
		var msg domain.Message
		if err := json.Unmarshal(val, &msg); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			return
		}
		table.Append([]string{
			shorten(msg.ConversationID.String()),
			strconv.FormatUint(msg.Seq, 10),
			string(msg.Role),
			msg.Specialist,
			msg.CreatedAt.Format("15:04:05"),
			truncate(msg.Content, 60),
		})
	})
	if err != nil {
		log.Fatal(err)
	}
	table.Render()
}

func printUsers(db *badger.DB) {
	section("ACCOUNTS")
	table := newTable([]string{"Email", "ID", "Roles", "Created"})

	err := scan(db, "user:", func(key string, val []byte) {
		var user repositories.User
		if err := json.Unmarshal(val, &user); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			return
		}
		table.Append([]string{
			user.Email,
			shorten(user.ID),
			strings.Join(user.Roles, ","),
			user.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	})
	if err != nil {
		log.Fatal(err)
	}
	table.Render()
}

func scan(db *badger.DB, prefix string, fn func(key string, val []byte)) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			if err := item.Value(func(v []byte) error {
				fn(string(item.Key()), v)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func section(title string) {
	fmt.Println()
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(" " + title + " "))
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// Si corruption détectée, essaie un open en write pour truncate
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			// Ferme et réouvre en read-only
			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
