package apt

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// NotFoundError reports that no usable mirror entry exists for an
// architecture. It matches errdefs.IsNotFound.
type NotFoundError struct {
	Section string
	Arch    string
	Reason  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("apt: no %s mirror for architecture %q: %s", e.Section, e.Arch, e.Reason)
}

func (e *NotFoundError) Unwrap() error {
	return errdefs.ErrNotFound
}
