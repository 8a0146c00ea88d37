// internal/models/configuration.go
package models

import "fmt"

// GameConfiguration is the host-authored rule set for a game template. The
// engine consumes it read-only: boolean feature flags gate which intents are
// accepted, numeric limits bound deals and the point economy.
type GameConfiguration struct {
	Name string `json:"name"`

	// Feature flags.
	CanDiscard        bool `json:"canDiscard"`
	CanReveal         bool `json:"canReveal"`
	CanDrawCards      bool `json:"canDrawCards"`
	CanDrawPoints     bool `json:"canDrawPoints"`
	CanPassPoints     bool `json:"canPassPoints"`
	TurnBased         bool `json:"turnBased"`
	LockTurn          bool `json:"lockTurn"`
	DealAllCards      bool `json:"dealAllCards"`
	RedealCards       bool `json:"redealCards"`
	ClaimTurns        bool `json:"claimTurns"`
	TradeCards        bool `json:"tradeCards"`
	PeakCards         bool `json:"peakCards"`
	LockPlayerDiscard bool `json:"lockPlayerDiscard"`
	HideHand          bool `json:"hideHand"`
	RevealHands       bool `json:"revealHands"`
	PassCards         bool `json:"passCards"`

	// Numeric limits.
	StartingNumCards  int `json:"startingNumCards"`
	MaxCardsPerPlayer int `json:"maxCardsPerPlayer"`
	StartingNumPoints int `json:"startingNumPoints"`
	NumPoints         int `json:"numPoints"`
	MaxPlayers        int `json:"maxPlayers"`
}

// Update overwrites fields present in the given map, leaving the rest
// untouched. JSON decoding hands us float64 for numbers, so both int and
// float64 are accepted.
func (cfg *GameConfiguration) Update(raw map[string]interface{}) error {
	assignBool := func(field *bool, key string) error {
		if val, exists := raw[key]; exists && val != nil {
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
			*field = b
		}
		return nil
	}

	assignInt := func(field *int, key string, minVal int) error {
		if val, exists := raw[key]; exists && val != nil {
			switch v := val.(type) {
			case float64:
				*field = int(v)
			case int:
				*field = v
			default:
				return fmt.Errorf("invalid type for %s", key)
			}
			if *field < minVal {
				return fmt.Errorf("%s must be >= %d", key, minVal)
			}
		}
		return nil
	}

	if val, exists := raw["name"]; exists && val != nil {
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("invalid type for name")
		}
		cfg.Name = s
	}

	boolFields := map[string]*bool{
		"canDiscard":        &cfg.CanDiscard,
		"canReveal":         &cfg.CanReveal,
		"canDrawCards":      &cfg.CanDrawCards,
		"canDrawPoints":     &cfg.CanDrawPoints,
		"canPassPoints":     &cfg.CanPassPoints,
		"turnBased":         &cfg.TurnBased,
		"lockTurn":          &cfg.LockTurn,
		"dealAllCards":      &cfg.DealAllCards,
		"redealCards":       &cfg.RedealCards,
		"claimTurns":        &cfg.ClaimTurns,
		"tradeCards":        &cfg.TradeCards,
		"peakCards":         &cfg.PeakCards,
		"lockPlayerDiscard": &cfg.LockPlayerDiscard,
		"hideHand":          &cfg.HideHand,
		"revealHands":       &cfg.RevealHands,
		"passCards":         &cfg.PassCards,
	}
	for key, field := range boolFields {
		if err := assignBool(field, key); err != nil {
			return err
		}
	}

	if err := assignInt(&cfg.StartingNumCards, "startingNumCards", 0); err != nil {
		return err
	}
	if err := assignInt(&cfg.MaxCardsPerPlayer, "maxCardsPerPlayer", 0); err != nil {
		return err
	}
	if err := assignInt(&cfg.StartingNumPoints, "startingNumPoints", 0); err != nil {
		return err
	}
	if err := assignInt(&cfg.NumPoints, "numPoints", 0); err != nil {
		return err
	}
	if err := assignInt(&cfg.MaxPlayers, "maxPlayers", 1); err != nil {
		return err
	}

	return nil
}

// DefaultGameConfiguration returns the baseline every template starts from.
func DefaultGameConfiguration() GameConfiguration {
	return GameConfiguration{
		CanDiscard:    true,
		CanDrawCards:  true,
		CanDrawPoints: true,
		CanPassPoints: true,
		TurnBased:     true,
		MaxPlayers:    8,
	}
}

// ParseGameConfiguration applies a raw rule map on top of the current
// configuration, type-checking every field.
func ParseGameConfiguration(raw map[string]interface{}, current GameConfiguration) (GameConfiguration, error) {
	cfg := current
	err := cfg.Update(raw)
	return cfg, err
}
