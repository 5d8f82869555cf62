package corebot

// Version is the release of the module, reported by /info and `corebot version`.
const Version = "0.1.0"
