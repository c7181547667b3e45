package main

// outcome is what happened to one queue message.
type outcome string

const (
	outcomeArchived  outcome = "archived"
	outcomeDuplicate outcome = "duplicate"
	outcomeFailed    outcome = "failed"
)
