/*
Package dialog defines dialog templates and the registry they are looked up in.

A Template is an ordered list of steps identified by a dialog id. Templates
are registered once at start-up and shared, read-only, by every conversation.
The state of a running dialog lives in its domain.Frame, never in the
template.
*/
package dialog
