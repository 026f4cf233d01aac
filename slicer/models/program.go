package models

// Statement is one top-level statement of an analyzed program with the names it binds and reads.
type Statement struct {
	Range LocationRange
	Defs  []string
	Uses  []string
}

// AnalyzedProgram is the result of parsing a full source text. It only holds plain data so it can be cached.
type AnalyzedProgram struct {
	Hash       string
	Statements []Statement
}
