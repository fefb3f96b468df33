package model

// AppVersion is the rollcall version reported by --version.
const AppVersion = "0.1.0"
