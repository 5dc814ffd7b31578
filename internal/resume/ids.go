package resume

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a list-item id made of a millisecond timestamp and a random suffix.
// Uniqueness is best effort; nothing in the model rejects duplicates.
func NewID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + suffix
}

// EnsureIDs assigns ids to list items that do not carry one yet.
func (d *Document) EnsureIDs() {
	if d == nil {
		return
	}
	for i := range d.Education {
		if d.Education[i].ID == "" {
			d.Education[i].ID = NewID()
		}
	}
	for i := range d.Projects {
		if d.Projects[i].ID == "" {
			d.Projects[i].ID = NewID()
		}
	}
	for i := range d.Internships {
		if d.Internships[i].ID == "" {
			d.Internships[i].ID = NewID()
		}
	}
	for i := range d.Achievements {
		if d.Achievements[i].ID == "" {
			d.Achievements[i].ID = NewID()
		}
	}
}
