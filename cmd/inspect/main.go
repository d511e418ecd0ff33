// Command inspect dumps the message keyspace of a Badger store as a
// table. Run it against a stopped server's data directory, or a copy.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "/tmp/team-chat/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Group", "Sender", "Delivered", "Content"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			// Skip the secondary indexes, they only hold pointers.
			key := string(item.Key())
			if strings.HasPrefix(key, "msgid:") || strings.HasPrefix(key, "dlv:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				var stored struct {
					Sender    string `json:"sender"`
					Group     string `json:"group"`
					Content   string `json:"content"`
					Type      string `json:"type"`
					At        int64  `json:"at"`
					Delivered bool   `json:"delivered"`
				}
				if err := json.Unmarshal(v, &stored); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
					return nil
				}

				content := stored.Content
				if len(content) > 48 {
					content = content[:48] + "..."
				}

				table.Append([]string{
					key,
					stored.Type,
					time.Unix(0, stored.At).UTC().Format("15:04:05"),
					stored.Group,
					stored.Sender,
					fmt.Sprintf("%t", stored.Delivered),
					content,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)
	return badger.Open(opts)
}
