package domain

// MainScope names the top-level action list of a script.
// Procedure scopes are named after the procedure itself.
const MainScope = ""

// DefaultMaxCallDepth bounds the number of nested procedure frames of a run.
const DefaultMaxCallDepth = 256
