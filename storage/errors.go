package storage

import "errors"

// ErrUnavailable is returned by the buffer pool when every frame is pinned
// and none can be reassigned to satisfy a pin request.
var ErrUnavailable = errors.New("storage: no unpinned buffer available")
