package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique identifier for new entities.
func New() string {
	return ksuid.New().String()
}
