package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	dataDir      = flag.String("data-dir", "/var/lib/proctor", "Proctor data directory")
	resetCores   = flag.Bool("reset-cores", false, "Forget every known core file, so existing cores are reported again")
	resetLogKind = flag.Bool("reset-log-kind", false, "Forget the proven log channel, so the log audit rediscovers one")
	dryRun       = flag.Bool("dry-run", false, "Show what would be changed without touching the database")
	backupPath   = flag.String("backup", "", "Backup path used before changes (default: <data-dir>/proctor.db.backup)")
)

// Bucket layout of the session store
var (
	bucketLogWatch = []byte("log_watch")
	bucketCores    = []byte("known_cores")
	keyLogKind     = []byte("kind")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags)
	log.Println("Proctor Session State Tool")
	log.Println("==========================")

	dbPath := filepath.Join(*dataDir, "proctor.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		log.Fatalf("Session database not found at %s", dbPath)
	}

	log.Printf("Database: %s", dbPath)

	mutating := *resetCores || *resetLogKind
	if mutating && !*dryRun {
		backupFile := *backupPath
		if backupFile == "" {
			backupFile = dbPath + ".backup"
		}
		log.Printf("Creating backup: %s", backupFile)
		if err := copyFile(dbPath, backupFile); err != nil {
			log.Fatalf("Failed to create backup: %v", err)
		}
		log.Println("✓ Backup created")
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := inspect(db); err != nil {
		log.Fatalf("Failed to read session state: %v", err)
	}

	if !mutating {
		return
	}

	if *dryRun {
		log.Println("\n[DRY RUN] Would perform the following operations:")
		if *resetLogKind {
			log.Println("  - delete the proven log channel kind")
		}
		if *resetCores {
			log.Println("  - delete every known core file entry")
		}
		log.Println("Run without -dry-run to apply.")
		return
	}

	if err := reset(db, *resetLogKind, *resetCores); err != nil {
		log.Fatalf("Reset failed: %v", err)
	}
	log.Println("✓ Session state updated")
}

// inspect prints the session state the audits accumulated
func inspect(db *bolt.DB) error {
	return db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketLogWatch); b != nil {
			if kind := b.Get(keyLogKind); kind != nil {
				log.Printf("Proven log channel: %s", kind)
			} else {
				log.Println("Proven log channel: none yet")
			}
		}

		b := tx.Bucket(bucketCores)
		if b == nil {
			log.Println("Known core files: none")
			return nil
		}

		count := 0
		_ = b.ForEach(func(k, v []byte) error {
			count++
			log.Printf("  core: %s", k)
			return nil
		})
		log.Printf("Known core files: %d", count)
		return nil
	})
}

// reset clears the selected session state
func reset(db *bolt.DB, logKind, cores bool) error {
	return db.Update(func(tx *bolt.Tx) error {
		if logKind {
			if b := tx.Bucket(bucketLogWatch); b != nil {
				if err := b.Delete(keyLogKind); err != nil {
					return fmt.Errorf("failed to delete log kind: %w", err)
				}
				log.Println("✓ Log channel forgotten")
			}
		}

		if cores {
			if b := tx.Bucket(bucketCores); b != nil {
				if err := tx.DeleteBucket(bucketCores); err != nil {
					return fmt.Errorf("failed to drop core bucket: %w", err)
				}
				if _, err := tx.CreateBucket(bucketCores); err != nil {
					return fmt.Errorf("failed to recreate core bucket: %w", err)
				}
				log.Println("✓ Core files forgotten")
			}
		}

		return nil
	})
}

func copyFile(src, dst string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, 0600)
}
