package store

import "github.com/and161185/covered/internal/model"

// SetUser records the signed-in identity; nil also clears the profile.
func (s *Store) SetUser(u *model.IdentityUser) {
	s.update(func(st *State) {
		st.User = u
		if u == nil {
			st.Profile = nil
		}
	})
}

func (s *Store) SetProfile(p *model.Profile) {
	s.update(func(st *State) { st.Profile = p })
}

func (s *Store) SetLoading(loading bool) {
	s.update(func(st *State) { st.IsLoading = loading })
}

func (s *Store) SetHomes(homes []model.Home) {
	s.update(func(st *State) { st.Homes = append([]model.Home{}, homes...) })
}

func (s *Store) SetCurrentHome(h *model.Home) {
	s.update(func(st *State) { st.CurrentHome = h })
}

func (s *Store) AddHome(h model.Home) {
	s.update(func(st *State) { st.Homes = append(st.Homes, h) })
}

// UpdateHome replaces the home with h.ID, including the current-home selection.
func (s *Store) UpdateHome(h model.Home) {
	s.update(func(st *State) {
		st.Homes = replace(st.Homes, h, func(x model.Home) bool { return x.ID == h.ID })
		if st.CurrentHome != nil && st.CurrentHome.ID == h.ID {
			cp := h
			st.CurrentHome = &cp
		}
	})
}

// RemoveHome drops the home; when it is the current home, the selection and
// the loaded rooms and items go with it.
func (s *Store) RemoveHome(id string) {
	s.update(func(st *State) {
		st.Homes = filter(st.Homes, func(x model.Home) bool { return x.ID != id })
		if st.CurrentHome != nil && st.CurrentHome.ID == id {
			st.CurrentHome = nil
			st.Rooms = []model.Room{}
			st.Items = []model.Item{}
		}
	})
}

func (s *Store) SetRooms(rooms []model.Room) {
	s.update(func(st *State) { st.Rooms = append([]model.Room{}, rooms...) })
}

func (s *Store) AddRoom(r model.Room) {
	s.update(func(st *State) { st.Rooms = append(st.Rooms, r) })
}

func (s *Store) UpdateRoom(r model.Room) {
	s.update(func(st *State) {
		st.Rooms = replace(st.Rooms, r, func(x model.Room) bool { return x.ID == r.ID })
	})
}

// RemoveRoom drops the room and every loaded item in it.
func (s *Store) RemoveRoom(id string) {
	s.update(func(st *State) {
		st.Rooms = filter(st.Rooms, func(x model.Room) bool { return x.ID != id })
		st.Items = filter(st.Items, func(x model.Item) bool { return x.RoomID != id })
	})
}

func (s *Store) SetItems(items []model.Item) {
	s.update(func(st *State) { st.Items = append([]model.Item{}, items...) })
}

func (s *Store) AddItem(it model.Item) {
	s.update(func(st *State) { st.Items = append(st.Items, it) })
}

func (s *Store) UpdateItem(it model.Item) {
	s.update(func(st *State) {
		st.Items = replace(st.Items, it, func(x model.Item) bool { return x.ID == it.ID })
	})
}

func (s *Store) RemoveItem(id string) {
	s.update(func(st *State) {
		st.Items = filter(st.Items, func(x model.Item) bool { return x.ID != id })
	})
}

// ClearData resets all domain entities; the auth section is untouched.
func (s *Store) ClearData() {
	s.update(func(st *State) {
		st.Homes = []model.Home{}
		st.CurrentHome = nil
		st.Rooms = []model.Room{}
		st.Items = []model.Item{}
	})
}

// filter and replace build fresh slices so earlier snapshots stay intact.
func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func replace[T any](in []T, v T, match func(T) bool) []T {
	out := make([]T, len(in))
	for i, x := range in {
		if match(x) {
			out[i] = v
		} else {
			out[i] = x
		}
	}
	return out
}
