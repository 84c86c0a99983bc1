package protocol

// Snapshot is one complete, authoritative description of the table as the
// server sees it for the receiving player. The server pushes a fresh Snapshot
// on every state change; the client replaces the previous one wholesale and
// never patches or merges.
type Snapshot struct {
	Started        bool `json:"started"`
	WallCount      int  `json:"wallCount"`
	TurnIndex      int  `json:"turnIndex"`
	ExpectsDiscard bool `json:"expectsDiscard"`

	ReactionActive bool `json:"reactionActive"`
	// ReactionDeadlineTs is an absolute deadline in epoch seconds. The server
	// writes time.time() + window, so fractional seconds are expected.
	ReactionDeadlineTs float64 `json:"reactionDeadlineTs"`

	Players          []Player      `json:"players"`
	YourHand         []string      `json:"yourHand"`
	DiscardsByPlayer []DiscardPile `json:"discardsByPlayer"`

	// YourActions lists the reaction claims currently offered to this player
	// (win/pong/kong/chi/pass), each with a server-issued id that must be
	// echoed back verbatim in a claim frame.
	YourActions []Action `json:"yourActions"`

	CanTing          bool     `json:"canTing"`
	YourTingPending  bool     `json:"yourTingPending"`
	TingDiscardables []string `json:"tingDiscardables"`

	DiceValues         []int       `json:"diceValues"`
	ScoreMultiplier    int         `json:"scoreMultiplier"`
	NextGameMultiplier int         `json:"nextGameMultiplier"`
	WaitingForDice     bool        `json:"waitingForDice"`
	DiceRoller         *DiceRoller `json:"diceRoller"`
	GameCount          int         `json:"gameCount"`
}

// Player is one seat, rotated so the recipient is always index 0.
type Player struct {
	Name         string   `json:"name"`
	Index        int      `json:"index"`
	HandCount    int      `json:"handCount"`
	You          bool     `json:"you"`
	Turn         bool     `json:"turn"`
	Score        int      `json:"score"`
	BonusTiles   []string `json:"bonusTiles"`
	Ting         bool     `json:"ting"`
	ExposedMelds []Meld   `json:"exposedMelds"`
}

// Meld is an exposed set. Pong and kong carry a single Tile; chi carries the
// full Tiles sequence.
type Meld struct {
	Type  string   `json:"type"`
	Tile  string   `json:"tile,omitempty"`
	Tiles []string `json:"tiles,omitempty"`
}

// Action is a reaction claim offered by the server during a reaction window.
type Action struct {
	ID    string   `json:"id"`
	Type  string   `json:"type"`
	Tile  string   `json:"tile,omitempty"`
	Tiles []string `json:"tiles,omitempty"`
}

type DiscardPile struct {
	Index int      `json:"index"`
	Name  string   `json:"name"`
	Tiles []string `json:"tiles"`
}

type DiceRoller struct {
	Name string `json:"name"`
}

// You returns the local player's seat, or nil if the snapshot has none.
func (s *Snapshot) You() *Player {
	for i := range s.Players {
		if s.Players[i].You {
			return &s.Players[i]
		}
	}
	return nil
}

// OfferedAction returns the offered reaction action with the given id.
func (s *Snapshot) OfferedAction(id string) (Action, bool) {
	for _, a := range s.YourActions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}
