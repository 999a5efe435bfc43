package main

import (
	"fmt"

	"github.com/promptfall/promptfall/cmd/promptfall/ui"
	"github.com/promptfall/promptfall/internal/client"
	"github.com/promptfall/promptfall/internal/config"
)

func createApp() (ui.Model, func(), error) {
	cfg := config.Load()

	c, err := client.Dial(cfg.ServerURL)
	if err != nil {
		return ui.Model{}, nil, fmt.Errorf("cannot reach server at %s: %w", cfg.ServerURL, err)
	}

	model := ui.NewModel(c)

	cleanup := func() {
		c.Close()
	}

	return model, cleanup, nil
}
