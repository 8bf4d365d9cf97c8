package core

import "slices"

// Room is an ephemeral group of sessions identified by a short code.
// Members are kept in join order. A room is deleted by the hub the moment
// its member list empties; rooms are never persisted.
type Room struct {
	Code    string
	Members []string
}

func newRoom(code string, creator string) *Room {
	return &Room{
		Code:    code,
		Members: []string{creator},
	}
}

func (r *Room) add(username string) {
	r.Members = append(r.Members, username)
}

func (r *Room) remove(username string) bool {
	i := slices.Index(r.Members, username)
	if i < 0 {
		return false
	}
	r.Members = slices.Delete(r.Members, i, i+1)
	return true
}

func (r *Room) empty() bool {
	return len(r.Members) == 0
}
