// Package agents adapts conversational text generation to the node contract.
//
// A conversation lives in one channel (by default "messages") reduced with
// Messages, which appends new messages and replaces those whose ID is already
// present. Agent nodes call a Generator with the history and append one
// assistant message; the Supervisor router sends the conversation between a
// researcher and a writer based on marker words in the latest message.
package agents
