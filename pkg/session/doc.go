/*
Package session stores audit state that outlives a single audit run.

Two pieces of state are session-scoped rather than per-run: the log channel
kind the log audit proved usable (so later runs try the working channel
first), and the set of core files already reported (so each discovered core
is warned about exactly once).

MemoryStore is the default and lasts one process lifetime. BoltStore
persists the same state under a data directory, letting a restarted harness
keep its dedup history and sticky log channel.
*/
package session
