package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"blogsync/app/remote"
)

// confirm asks a yes/no question on stdin.
func confirm(question string) bool {
	fmt.Print(question + " [y/N] ")
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

// failf reports a maintenance failure and yields the exit code for it.
func failf(format string, args ...any) int {
	fmt.Printf(format+"\n", args...)
	return 1
}

func dbExists(dbPath string) bool {
	_, err := os.Stat(dbPath)
	return err == nil
}

// withStore opens the on-disk store at dbPath for the duration of fn.
func withStore(dbPath string, fn func(*remote.BadgerStore) error) error {
	store, err := remote.OpenBadger(dbPath, false)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// clean removes the database directory.
func clean(dbPath string) int {
	if !dbExists(dbPath) {
		fmt.Println("Database is already clean (does not exist)")
		return 0
	}
	if !confirm("Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Println("Operation cancelled")
		return 0
	}
	if err := os.RemoveAll(dbPath); err != nil {
		return failf("Failed to clean database: %v", err)
	}
	fmt.Println("Database cleaned successfully")
	return 0
}

// initDb creates a new empty database.
func initDb(dbPath string) int {
	if dbExists(dbPath) {
		fmt.Println("Database already exists. Use 'clean' first if you want to reinitialize.")
		return 0
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return failf("Failed to create database directory: %v", err)
	}
	if err := withStore(dbPath, func(*remote.BadgerStore) error { return nil }); err != nil {
		return failf("Failed to initialize database: %v", err)
	}
	fmt.Println("Database initialized successfully")
	return 0
}

// backup dumps the database into a timestamped file in a backups directory
// beside it.
func backup(dbPath string) int {
	if !dbExists(dbPath) {
		return failf("No database exists to backup")
	}
	dir := filepath.Join(filepath.Dir(dbPath), "backups")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return failf("Failed to create backup directory: %v", err)
	}
	name := filepath.Join(dir, "blogsync_"+time.Now().UTC().Format("20060102T150405.000000000")+".bak")

	err := withStore(dbPath, func(store *remote.BadgerStore) error {
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		if err := store.Backup(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
	if err != nil {
		return failf("Failed to backup database: %v", err)
	}
	fmt.Printf("Database backed up successfully to %s\n", name)
	return 0
}

// restore replaces the database with the content of a backup file.
func restore(dbPath, backupFile string) int {
	fi, err := os.Stat(backupFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return failf("Backup file does not exist: %s", backupFile)
	case err != nil:
		return failf("Failed to stat backup file: %v", err)
	case fi.Size() == 0:
		return failf("Backup file is empty: %s", backupFile)
	}

	if dbExists(dbPath) {
		if !confirm("Existing database found. Do you want to replace it?") {
			return failf("Operation cancelled")
		}
		if err := os.RemoveAll(dbPath); err != nil {
			return failf("Failed to remove existing database: %v", err)
		}
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return failf("Failed to create database directory: %v", err)
	}

	err = withStore(dbPath, func(store *remote.BadgerStore) error {
		f, err := os.Open(backupFile)
		if err != nil {
			return err
		}
		defer f.Close()
		return store.Restore(f)
	})
	if err != nil {
		return failf("Failed to restore database: %v", err)
	}
	fmt.Println("Database restored successfully")
	return 0
}
