package cards

import "errors"

// ErrFeedUnavailable indicates the recent-records feed answered with a non-200 status.
var ErrFeedUnavailable = errors.New("card feed unavailable")
