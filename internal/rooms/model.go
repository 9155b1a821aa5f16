package rooms

import "time"

// Room is a bounded group of clients coordinating one quiz session.
// Members is kept in insertion order; the first member is the creator.
type Room struct {
	Code      string
	Members   []string
	Capacity  int
	CreatedAt time.Time
}

// Creator returns the id of the oldest current member, or "" for an
// empty room.
func (r *Room) Creator() string {
	if len(r.Members) == 0 {
		return ""
	}
	return r.Members[0]
}

func (r *Room) HasMember(id string) bool {
	for _, m := range r.Members {
		if m == id {
			return true
		}
	}
	return false
}
