package internal

// Version is the current xamr release.
const Version = "0.3.0"
