package checkout

import "time"

const timeLayout = time.RFC3339

// timeNow is a test seam.
var timeNow = time.Now
