package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendMessage delivers a direct message to another user.
	CommandSendMessage CommandKind = iota
	// CommandNotifyTyping relays a typing notice to another user.
	CommandNotifyTyping
	// CommandLoadHistory requests a page of conversation history.
	CommandLoadHistory
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind

	// CommandSendMessage
	ReceiverID int64
	Content    string

	// CommandNotifyTyping
	RecipientUsername string

	// CommandLoadHistory
	PeerID int64
	Page   int
	ReqID  string
}
