/*
Package session serializes access to the dialog stack of each conversation.

Turns of one conversation never run concurrently: the Manager holds a
reference-counted in-process mutex per conversation and, when configured, a
distributed lock so that several replicas sharing one store behave the same.
Turns of distinct conversations proceed in parallel.
*/
package session
