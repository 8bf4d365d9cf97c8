package core

import "math/rand"

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// newRoomCodeLocked generates a room code unique among currently open rooms,
// retrying on collision. Caller must hold h.mu so the returned code stays
// unique until the room is inserted.
func (h *Hub) newRoomCodeLocked() string {
	buf := make([]byte, codeLength)
	for {
		for i := range buf {
			buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := h.rooms[code]; !taken {
			return code
		}
	}
}
