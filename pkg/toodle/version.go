package toodle

// Version is the toodle release version.
const Version = "0.1.0"
