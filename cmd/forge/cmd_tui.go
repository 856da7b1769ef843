package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/guild-forge/internal/flow"
	"github.com/kingrea/guild-forge/internal/tui"
)

var requester string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal order menu",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	name := requester
	if name == "" {
		name = os.Getenv("USER")
	}
	guild := rt.cfg.Project.Guild
	app, err := tui.NewApp(rt.flows, rt.catalog,
		tui.WithRequester(name),
		tui.WithAnnouncer(rt.announcer),
		tui.WithLogger(rt.logger.Logger),
		tui.WithLogbook(rt.journal),
		tui.WithWait(rt.cfg.Wait()),
		tui.WithTier(guild.ReferenceTier),
		tui.WithMenuDescription(flow.MenuDescription(guild.PricePerPiece, guild.CrafterRole)),
	)
	if err != nil {
		return err
	}

	// tea.NewProgram creates a new bubbletea application
	p := tea.NewProgram(app, tea.WithAltScreen())

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal: %w", err)
	}
	return nil
}
