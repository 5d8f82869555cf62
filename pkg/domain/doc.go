/*
Package domain contains the core models of the corebot turn engine.

It defines the dialog stack, the actions a dialog step can return, the
inbound activity and outbound message shapes, and the structured details
exchanged between the router and its child dialogs. The package is kept
free of I/O and persistence concerns.

# Key Entities

  - Frame: One suspended or running invocation of a dialog template.
  - Stack: The ordered frames of a conversation; the last one is active.
  - Action: What a step asks the executor to do next (Prompt, Continue, BeginChild, End, Replace).
  - Activity: The inbound turn input.
  - Message: An outbound reply, optionally carrying a machine-readable Directive.
*/
package domain
