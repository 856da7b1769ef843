package intake

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kingrea/guild-forge/internal/catalog"
)

// State enumerates the phases of a session.
type State string

const (
	StateCollectingParts          State = "collecting_parts"
	StateExpandingDuplicates      State = "expanding_duplicates"
	StateAwaitingEnchantmentOptIn State = "awaiting_enchantment_opt_in"
	StateProcessingWeapons        State = "processing_weapons"
	StateProcessingArmour         State = "processing_armour"
	StateProcessingJewelry        State = "processing_jewelry"
	StateReadyForReview           State = "ready_for_review"
	StateConfirmed                State = "confirmed"
	StateCancelled                State = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateConfirmed || s == StateCancelled }

func processingState(f catalog.Family) State {
	switch f {
	case catalog.FamilyWeapon:
		return StateProcessingWeapons
	case catalog.FamilyArmour:
		return StateProcessingArmour
	default:
		return StateProcessingJewelry
	}
}

// MaxOrderNameLength bounds the order name, counted in characters.
const MaxOrderNameLength = 80

var (
	// ErrInvalidOrderName is recoverable: the name prompt is repeated.
	ErrInvalidOrderName = errors.New("intake: order name must be 1-80 characters")
	// ErrNoParts cancels a session whose part selection came back empty.
	ErrNoParts = errors.New("intake: no parts selected")
	// ErrTooManyParts is returned when a transport ignores the selection cap.
	ErrTooManyParts = errors.New("intake: too many parts selected")
)

// NormalizeOrderName trims the name and checks its length.
func NormalizeOrderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxOrderNameLength {
		return "", fmt.Errorf("%w: got %d", ErrInvalidOrderName, utf8.RuneCountInString(name))
	}
	return name, nil
}
