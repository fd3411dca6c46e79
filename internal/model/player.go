package model

// Player is someone waiting in the matchmaking queue.
type Player struct {
	ID string
}

type ClientPlayer struct {
	ID    string `json:"name"`
	Color Color  `json:"color"`
}

func (p ClientPlayer) seated() bool {
	return p.ID != ""
}
