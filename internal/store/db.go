package store

import "time"

// Tournament is one archived run.
type Tournament struct {
	ID         string    `json:"id"`
	RedModule  string    `json:"red_module"`
	BlueModule string    `json:"blue_module"`
	StartSeed  uint32    `json:"start_seed"`
	Games      uint32    `json:"games"`
	Workers    int       `json:"workers"`
	RedWins    uint32    `json:"red_wins"`
	BlueWins   uint32    `json:"blue_wins"`
	Ties       uint32    `json:"ties"`
	CreatedAt  time.Time `json:"created_at"`

	LoseReasons []LoseReason `json:"lose_reasons,omitempty"`
}

// LoseReason is one histogram row of an archived run.
type LoseReason struct {
	Winner       string   `json:"winner"`
	Reason       string   `json:"reason"`
	Count        uint32   `json:"count"`
	ExampleSeeds []uint32 `json:"example_seeds"`
}

// DB persists tournament runs.
type DB interface {
	SaveTournament(t *Tournament) error
	GetTournament(id string) (*Tournament, error)
	ListTournaments(limit int) ([]*Tournament, error)
	Close() error
}
