package store

import "github.com/and161185/covered/internal/model"

// State is a snapshot of the application state. Entity values inside are
// shared with the Store and must be treated as read-only.
type State struct {
	User      *model.IdentityUser
	Profile   *model.Profile
	IsLoading bool

	Homes       []model.Home
	CurrentHome *model.Home
	Rooms       []model.Room
	Items       []model.Item
}

// IsAuthenticated is derived from User, never stored.
func (s State) IsAuthenticated() bool { return s.User != nil }

// Persisted is the subset of State that survives restarts.
type Persisted struct {
	CurrentHome *model.Home  `json:"currentHome"`
	Homes       []model.Home `json:"homes"`
}

func initialState() State {
	return State{
		IsLoading: true,
		Homes:     []model.Home{},
		Rooms:     []model.Room{},
		Items:     []model.Item{},
	}
}

func (s State) clone() State {
	out := s
	out.Homes = append([]model.Home{}, s.Homes...)
	out.Rooms = append([]model.Room{}, s.Rooms...)
	out.Items = append([]model.Item{}, s.Items...)
	if s.CurrentHome != nil {
		h := *s.CurrentHome
		out.CurrentHome = &h
	}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	return out
}

func (s State) persisted() Persisted {
	return Persisted{CurrentHome: s.CurrentHome, Homes: s.Homes}
}
