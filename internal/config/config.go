// Package config loads the JSON game configuration shared by every table:
// bet tiers, the default tienlen rule variant and per-game options.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// BetTier is a named stake level selectable at table creation.
type BetTier struct {
	ID      string `json:"id"`
	BaseBet int64  `json:"base_bet"`
}

// HoldemOptions configures the community-card tables.
type HoldemOptions struct {
	SmallBlind int64 `json:"small_blind"`
	BigBlind   int64 `json:"big_blind"`
	BuyIn      int64 `json:"buy_in"`
}

// GameConfig is the root configuration document.
type GameConfig struct {
	DefaultTier    string        `json:"default_tier"`
	Tiers          []BetTier     `json:"tiers"`
	TienLenVariant string        `json:"tienlen_variant"` // "southern" or "northern"
	FiveDrawAnte   int64         `json:"fivedraw_ante"`
	Holdem         HoldemOptions `json:"holdem"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// Load reads the game configuration from the given path, once per process.
func Load(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// Get returns the global game configuration, nil before Load.
func Get() *GameConfig {
	return cfg
}

// BaseBet returns the base bet for a tier ID, or the default tier's.
func BaseBet(tierID string) int64 {
	if cfg == nil {
		return 100 // Safe default
	}

	target := tierID
	if target == "" {
		target = cfg.DefaultTier
	}

	for _, tier := range cfg.Tiers {
		if tier.ID == target {
			return tier.BaseBet
		}
	}

	for _, tier := range cfg.Tiers {
		if tier.ID == cfg.DefaultTier {
			return tier.BaseBet
		}
	}

	return 100
}

// TienLenVariant returns the configured rule variant name.
func TienLenVariant() string {
	if cfg == nil || cfg.TienLenVariant == "" {
		return "southern"
	}
	return cfg.TienLenVariant
}

// FiveDrawAnte returns the draw-poker ante.
func FiveDrawAnte() int64 {
	if cfg == nil || cfg.FiveDrawAnte <= 0 {
		return 10
	}
	return cfg.FiveDrawAnte
}

// HoldemStakes returns the blind sizes and buy-in.
func HoldemStakes() HoldemOptions {
	if cfg == nil || cfg.Holdem.BigBlind <= 0 {
		return HoldemOptions{SmallBlind: 5, BigBlind: 10, BuyIn: 1000}
	}
	return cfg.Holdem
}
