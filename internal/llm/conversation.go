package llm

import "context"

// Conversation keeps a multi-turn history and replays it on every call.
// It is not safe for concurrent use.
type Conversation struct {
	client  *Client
	history []Message
}

func NewConversation(client *Client, system string) *Conversation {
	cv := &Conversation{client: client}
	if system != "" {
		cv.history = append(cv.history, Message{Role: "system", Content: system})
	}
	return cv
}

// Send appends text as a user turn and returns the assistant's reply. A
// failed call leaves the history unchanged.
func (cv *Conversation) Send(ctx context.Context, text string) (string, error) {
	msgs := append(cv.History(), Message{Role: "user", Content: text})
	reply, err := cv.client.Complete(ctx, msgs)
	if err != nil {
		return "", err
	}
	cv.history = append(msgs, Message{Role: "assistant", Content: reply})
	return reply, nil
}

func (cv *Conversation) History() []Message {
	return append([]Message(nil), cv.history...)
}
