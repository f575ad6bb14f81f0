/*
Package botinho is a WhatsApp-style conversational bot engine: a per-user
dialog state machine over a shared menu tree with an English proficiency
assessment behind one of its branches.

The library does not speak any chat protocol. The host receives messages from
its transport, hands them to Bot.Route together with a ports.Sender and the
bot replies through that sender. Sessions, results and transcripts live in
pluggable stores (memory, file, redis) and the answers are scored by a
ports.Scorer such as the Gemini adapter.

# Usage

	scorer, err := gemini.New(ctx, gemini.Config{APIKey: key})
	if err != nil {
		log.Fatal(err)
	}

	bot, err := botinho.New(scorer)
	if err != nil {
		log.Fatal(err)
	}

	// For every inbound message:
	if _, err := bot.Route(ctx, ports.Inbound{Identity: from, Text: body}, sender); err != nil {
		log.Printf("turn failed: %v", err)
	}

Per-identity turns are serialized; different identities run in parallel.
*/
package botinho
