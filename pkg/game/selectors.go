package game

import "fmt"

// Element selectors. A change to the game's markup is a breaking change of
// this table, not of the modules that read it.
const (
	MaxAllButton = "#maxall"

	SacrificeButton       = "#sacrifice"
	SacrificeConfirmation = "#confirmation"

	DimensionBoostLabel  = "#resetLabel"
	DimensionBoostButton = "#softReset"

	GalaxyLabel  = "#secondResetLabel"
	GalaxyButton = "#secondSoftReset"

	BigCrunchButton = "#bigcrunch"
)

// CSS classes the bot inspects.
const (
	// AffordableClass marks a purchase button the player can currently afford.
	AffordableClass = "storebtn"

	// UnavailableClass marks a button whose action is not available.
	UnavailableClass = "unavailablebtn"
)

// Dimension holds the selectors of one antimatter dimension row.
type Dimension struct {
	Row    string
	Amount string
	BuyOne string
}

var dimensionIDs = [8]string{"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eight"}

// rowIDs differ from the other prefixes for the 8th tier.
var rowIDs = [8]string{"firstRow", "secondRow", "thirdRow", "fourthRow", "fifthRow", "sixthRow", "seventhRow", "eightRow"}

// DimensionAt returns the selectors for tier 1..8.
func DimensionAt(tier int) (Dimension, error) {
	if tier < 1 || tier > len(dimensionIDs) {
		return Dimension{}, fmt.Errorf("dimension tier must be between 1 and 8, got %d", tier)
	}
	id := dimensionIDs[tier-1]
	return Dimension{
		Row:    "#" + rowIDs[tier-1],
		Amount: "#" + id + "Amount",
		BuyOne: "#" + id,
	}, nil
}

// EighthDimension is the dimension consumed by a sacrifice.
func EighthDimension() Dimension {
	d, _ := DimensionAt(8)
	return d
}
