// Package scheduling holds the clinic's appointment decision engine: the
// appointment state machine, the time-based admission rules, double-booking
// detection and practitioner selection. It performs no I/O of its own; all
// lookups go through the collaborator interfaces declared here.
package scheduling
