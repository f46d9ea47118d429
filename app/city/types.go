package city

import (
	"strconv"
)

// City is one row of the reference dataset. Rows are read-only input,
// never written back.
type City struct {
	ID      int64 // 0 when the dataset row has no id column or value
	Name    string
	ASCII   string
	Country string
	Lat     float64
	Lng     float64
}

// Key returns the derived identifier used for posted-set membership:
// the numeric id when present, otherwise a name|country composite.
func (c City) Key() string {
	if c.ID != 0 {
		return strconv.FormatInt(c.ID, 10)
	}
	name := c.ASCII
	if name == "" {
		name = FoldASCII(c.Name)
	}
	return name + "|" + c.Country
}

// PostedRecord is one line of the append-only posted log.
type PostedRecord struct {
	ID       int64    `json:"id,omitempty"`
	City     string   `json:"city"`
	Country  string   `json:"country"`
	PostedAt string   `json:"posted_at,omitempty"`
	Sources  []string `json:"sources,omitempty"`
	PostID   string   `json:"post_id,omitempty"`
}

// Key folds the stored display name so it matches the composite a
// dataset row derives from its ascii column.
func (r PostedRecord) Key() string {
	if r.ID != 0 {
		return strconv.FormatInt(r.ID, 10)
	}
	return FoldASCII(r.City) + "|" + r.Country
}
