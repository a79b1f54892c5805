// Package core implements the subscription, publishing, and routing
// runtime consumed by the fastpubsub facade.
package core

// Message is the immutable translation of a bus-delivered message. It is
// created once per delivery by a poll task and handed down the middleware
// chain; nothing downstream may mutate it in place — middleware that needs
// to change the payload (GZip, for example) builds a new Message value.
type Message struct {
	ID              string
	Payload         []byte
	Size            int
	Attributes      map[string]string
	AckToken        string
	DeliveryAttempt int

	// Topic and Subscription identify where the message came from; they are
	// not part of the wire delivery but are useful to middleware and logs.
	Topic        string
	Subscription string
}

// WithPayload returns a shallow copy of m with Payload (and Size) replaced.
// Attributes is copied so callers can add/remove entries without aliasing
// the original map.
func (m Message) WithPayload(payload []byte) Message {
	attrs := make(map[string]string, len(m.Attributes))
	for k, v := range m.Attributes {
		attrs[k] = v
	}
	m.Payload = payload
	m.Size = len(payload)
	m.Attributes = attrs
	return m
}

// ReceivedMessage is what a BusClient hands back from Pull, before
// translation into a Message.
type ReceivedMessage struct {
	MessageID       string
	Data            []byte
	Attributes      map[string]string
	AckID           string
	DeliveryAttempt int
}

// Translate converts a bus delivery into the Message shape the middleware
// chain operates on.
func Translate(topic, subscription string, r ReceivedMessage) Message {
	return Message{
		ID:              r.MessageID,
		Payload:         r.Data,
		Size:            len(r.Data),
		Attributes:      r.Attributes,
		AckToken:        r.AckID,
		DeliveryAttempt: r.DeliveryAttempt,
		Topic:           topic,
		Subscription:    subscription,
	}
}
