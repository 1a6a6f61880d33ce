package sandbox

// Winner identifies the outcome of a completed game.
type Winner int

const (
	WinnerRed Winner = iota
	WinnerBlue
	WinnerTie
)

// Guest winner codes as returned by result_get_winner. Codes 3 and 4
// are structural-validation failures, not game outcomes, and never
// escape RunGame as a Winner value.
const (
	codeRedWins     = 0
	codeBlueWins    = 1
	codeTie         = 2
	codeRedInvalid  = 3
	codeBlueInvalid = 4
)

func (w Winner) String() string {
	switch w {
	case WinnerRed:
		return "RED"
	case WinnerBlue:
		return "BLUE"
	case WinnerTie:
		return "TIE"
	default:
		return "UNKNOWN"
	}
}

// GameResult is the structured outcome of one game. LoseReason is a
// human-readable description of why the last snake died, attributed to
// the winning side's statistics by convention.
type GameResult struct {
	Winner     Winner `json:"winner"`
	Tick       uint32 `json:"tick"`
	Cycle      uint32 `json:"cycle"`
	LoseReason string `json:"lose_reason"`
}
