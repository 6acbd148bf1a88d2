package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmorder/tmorder/internal/bootstrap"
	"github.com/tmorder/tmorder/internal/config"
	"github.com/tmorder/tmorder/internal/migrations"
)

func init() {
	// Migrate
	var migrateStatus bool
	var migrateRollback bool
	var migrateCmd = &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Database migration management",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := bootstrap.OpenSQLite(cfg.DB.Path)
			if err != nil {
				return err
			}
			fmt.Printf("Using DB path: %s\n", cfg.DB.Path)
			defer db.Close()

			if migrateStatus {
				return migrations.Status(db)
			}
			if migrateRollback {
				return migrations.Down(db)
			}

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}

			switch action {
			case "up":
				return migrations.Up(db)
			case "down":
				return migrations.Down(db)
			case "status":
				return migrations.Status(db)
			default:
				return fmt.Errorf("unknown migrate action %q", action)
			}
		},
	}
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Show migration status")
	migrateCmd.Flags().BoolVar(&migrateRollback, "rollback", false, "Rollback the last migration")
	rootCmd.AddCommand(migrateCmd)

	// Backup
	var backupOutput string
	var backupCompress bool
	var backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Backup database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			target := backupOutput
			if target == "" {
				backupDir := "data/backups"
				if err := os.MkdirAll(backupDir, 0755); err != nil {
					return fmt.Errorf("create backup dir: %w", err)
				}
				ext := ".db"
				if backupCompress {
					ext += ".gz"
				}
				filename := fmt.Sprintf("tmorder_%s%s", time.Now().Format("20060102_150405"), ext)
				target = filepath.Join(backupDir, filename)
			}

			db, err := bootstrap.OpenSQLite(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			tempFile := target
			if backupCompress {
				if strings.HasSuffix(target, ".gz") {
					tempFile = strings.TrimSuffix(target, ".gz")
				} else {
					tempFile = target + ".tmp"
				}
			}

			if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", tempFile)); err != nil {
				return fmt.Errorf("sqlite vacuum into: %w", err)
			}

			if backupCompress {
				if err := compressFile(tempFile, target); err != nil {
					os.Remove(tempFile)
					return err
				}
				os.Remove(tempFile)
			}

			fmt.Printf("Backup created at %s\n", target)
			return nil
		},
	}
	backupCmd.Flags().StringVar(&backupOutput, "output", "", "Output file path")
	backupCmd.Flags().BoolVar(&backupCompress, "compress", false, "Compress output with gzip")
	rootCmd.AddCommand(backupCmd)

	// Restore
	var restoreCmd = &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Restore database from backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			backupPath := args[0]
			if _, err := os.Stat(backupPath); err != nil {
				return fmt.Errorf("backup file not found: %w", err)
			}

			dbPath := cfg.DB.Path
			// Auto-backup before restore
			if _, err := os.Stat(dbPath); err == nil {
				bakPath := dbPath + ".pre_restore_" + time.Now().Format("20060102_150405")
				if err := copyFile(dbPath, bakPath); err != nil {
					return fmt.Errorf("failed to backup current db: %w", err)
				}
				fmt.Printf("Current database backed up to %s\n", bakPath)
			}

			isGzip := strings.HasSuffix(backupPath, ".gz")
			sourceFile := backupPath

			if isGzip {
				tempSource := dbPath + ".restoring"
				if err := decompressFile(backupPath, tempSource); err != nil {
					return fmt.Errorf("decompress failed: %w", err)
				}
				sourceFile = tempSource
				defer os.Remove(tempSource)
			}

			if err := copyFile(sourceFile, dbPath); err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			fmt.Println("Database restored successfully.")
			return nil
		},
	}
	rootCmd.AddCommand(restoreCmd)

	// Version
	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tmorder %s\n", Version)
			fmt.Printf("Commit: %s\n", Commit)
			fmt.Printf("Build Time: %s\n", BuildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

// File utils
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	defer gw.Close()

	if _, err := io.Copy(gw, in); err != nil {
		return err
	}
	return nil
}

func decompressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	gr, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer gr.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, gr); err != nil {
		return err
	}
	return nil
}
