/*
Package ports defines the driven ports (interfaces) of the corebot engine.

These interfaces decouple the turn engine from storage backends, intent
services, string catalogs and outbound channels.

# Key Interfaces

  - StackStore: Persists the dialog stack of each conversation.
  - DistributedLocker: Serializes turns of one conversation across replicas.
  - Recognizer: Classifies an utterance into an intent with entities.
  - Localizer: Looks up a localized string for the culture of the current turn.
  - MessageSink: Receives the outbound messages of every processed turn.
*/
package ports
