package namegen

import (
	"fmt"

	vendor "github.com/anandvarma/namegen"
)

var gen = vendor.New()

// ID names a trial in logs and diagnostics files.
type ID string

// Trial returns an identifier for the trial at the given grid position. The position
// prefix keeps identifiers sortable in grid order.
func Trial(index int) ID {
	return ID(fmt.Sprintf("%03d-%s", index+1, gen.Get()))
}

func (id ID) String() string {
	return string(id)
}
