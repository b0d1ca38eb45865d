package member

// Directory answers name lookups against one fetched member list.
type Directory interface {
	FindByID(id int64) (Member, bool)
	NameFor(userID int64) string
}

// MemoryDirectory implements Directory over a slice snapshot.
type MemoryDirectory struct {
	items []Member
}

// NewMemoryDirectory returns a MemoryDirectory holding a copy of items.
func NewMemoryDirectory(items []Member) *MemoryDirectory {
	return &MemoryDirectory{items: append([]Member(nil), items...)}
}

// FindByID looks up a member by identifier.
func (d *MemoryDirectory) FindByID(id int64) (Member, bool) {
	for _, item := range d.items {
		if item.ID == id {
			return item, true
		}
	}
	return Member{}, false
}

// NameFor resolves the display name for userID, falling back to "Member {id}".
func (d *MemoryDirectory) NameFor(userID int64) string {
	if m, ok := d.FindByID(userID); ok {
		return m.Name
	}
	return FallbackName(userID)
}
