package mq

import "context"

// MessageQueue carries account-purge messages from the API to the purge
// worker. Receive long-polls; a received message stays invisible to other
// consumers for visibilityTimeout seconds, until Delete acknowledges it.
type MessageQueue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, visibilityTimeout int32) (*Message, error)
	Delete(ctx context.Context, msg *Message) error
}

// Message is a received queue entry. Id is the broker's receipt handle and
// is what Delete needs to acknowledge.
type Message struct {
	Id   string
	Body string
}
