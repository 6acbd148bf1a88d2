package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tmorder/tmorder/internal/bootstrap"
	"github.com/tmorder/tmorder/internal/config"
	"github.com/tmorder/tmorder/internal/migrations"
	"github.com/tmorder/tmorder/internal/repository/sqlite"
	"github.com/tmorder/tmorder/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive order board",
	Long:  "Launch an interactive terminal UI showing orders and deadline urgency.",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := bootstrap.OpenSQLite(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	store := sqlite.NewStore(db)

	model := tui.NewModel(store)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	return nil
}
