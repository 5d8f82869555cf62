/*
Package corebot is a turn-based conversational assistant built on a durable
dialog stack.

Every conversation is a stack of dialog frames. A turn loads the stack,
resumes the active dialog with the user's message, runs steps until one of
them prompts the user or the root dialog ends, and saves the resulting stack.
Nothing survives a turn but the stack, so any replica can serve the next one.

# Dialogs

The root dialog (MainDialog) greets the user, classifies the message with the
configured recognizer and routes it: flights go to BookingDialog, pizzas to
OrderPizzaDialog, transfers produce a channel directive and unknown intents a
localized apology. When a child dialog ends the router confirms the result and
restarts itself with a follow-up prompt.

# Usage

	bot, err := corebot.New(
		corebot.WithStore(redis.New("localhost:6379", "", 0)),
		corebot.WithRecognizer(clu.New(cluConfig)),
	)
	if err != nil {
		log.Fatal(err)
	}

	out, err := bot.OnTurn(ctx, domain.Activity{
		Type:         domain.ActivityMessage,
		Text:         "Book a flight from Seattle to Paris",
		Locale:       "en-US",
		Conversation: domain.ConversationAccount{ID: "conv-1"},
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, m := range out.All() {
		fmt.Println(m.Text)
	}

# Adapters

Stacks can be kept in memory, in files, in Redis, SQLite or Badger, and
wrapped with encryption or PII masking from pkg/persistence/middleware.
Channels are provided for the console (cmd/corebot chat), HTTP with
server-sent events (pkg/adapters/http) and MCP (pkg/adapters/mcp).
*/
package corebot
