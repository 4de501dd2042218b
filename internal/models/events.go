package models

import "encoding/json"

// Operation is a client-invocable hub method.
type Operation string

const (
	OpSendMessage             Operation = "SendMessage"
	OpUpdateMessage           Operation = "UpdateMessage"
	OpDeleteMessage           Operation = "DeleteMessage"
	OpAddUserToChannel        Operation = "AddUserToChannel"
	OpRemoveUserFromChannel   Operation = "RemoveUserFromChannel"
	OpAddUserToWorkspace      Operation = "AddUserToWorkspace"
	OpRemoveUserFromWorkspace Operation = "RemoveUserFromWorkspace"
)

// EventName is a server-pushed event.
type EventName string

const (
	EventReceiveMessage          EventName = "ReceiveMessage"
	EventUpdateMessage           EventName = "UpdateMessage"
	EventDeleteMessage           EventName = "DeleteMessage"
	EventAddUserToChannel        EventName = "AddUserToChannel"
	EventRemoveUserFromChannel   EventName = "RemoveUserFromChannel"
	EventAddUserToWorkspace      EventName = "AddUserToWorkspace"
	EventRemoveUserFromWorkspace EventName = "RemoveUserFromWorkspace"
	// EventSuccess and EventError are only ever sent to the caller.
	EventSuccess EventName = "Success"
	EventError   EventName = "Error"
)

// Inbound is a frame received from a client.
type Inbound struct {
	Type      Operation       `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Event is a frame pushed to a client.
type Event struct {
	Type      EventName `json:"type"`
	RequestID string    `json:"requestId,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// SuccessPayload acknowledges an operation to its caller. For SendMessage,
// Result is the persisted message: the caller's own echo.
type SuccessPayload struct {
	Operation Operation `json:"operation"`
	Result    any       `json:"result,omitempty"`
}

// ErrorPayload reports a failed operation to its caller.
type ErrorPayload struct {
	StatusCode int    `json:"statusCode"`
	Title      string `json:"title"`
}

// DeleteNotice is the payload of a DeleteMessage event.
type DeleteNotice struct {
	MessageID         string `json:"messageId"`
	ReceiverID        string `json:"receiverId"`
	IsChannel         bool   `json:"isChannel"`
	DeleteForEveryone bool   `json:"deleteForEveryone"`
}

// ChannelMembershipNotice is the payload of AddUserToChannel / RemoveUserFromChannel.
type ChannelMembershipNotice struct {
	ChannelID string   `json:"channelId"`
	UserIDs   []string `json:"userIds"`
	ActorID   string   `json:"actorId,omitempty"`
}

// WorkspaceMembershipNotice is the payload of AddUserToWorkspace / RemoveUserFromWorkspace.
type WorkspaceMembershipNotice struct {
	WorkspaceID string   `json:"workspaceId"`
	UserIDs     []string `json:"userIds"`
	ActorID     string   `json:"actorId,omitempty"`
}

// SendMessageRequest is the data of a SendMessage operation.
type SendMessageRequest struct {
	ReceiverID string   `json:"receiverId" validate:"required,max=64"`
	Content    string   `json:"content" validate:"required_without=Files,max=4000"`
	ReplyTo    *string  `json:"replyTo,omitempty" validate:"omitempty,uuid"`
	IsChannel  bool     `json:"isChannel"`
	Files      []string `json:"files,omitempty" validate:"max=10,dive,required"`
}

// UpdateMessageRequest is the data of an UpdateMessage operation.
type UpdateMessageRequest struct {
	MessageID string   `json:"messageId" validate:"required,uuid"`
	Content   string   `json:"content" validate:"required_without=Files,max=4000"`
	Files     []string `json:"files,omitempty" validate:"max=10,dive,required"`
}

// DeleteMessageRequest is the data of a DeleteMessage operation.
type DeleteMessageRequest struct {
	MessageID         string `json:"messageId" validate:"required,uuid"`
	DeleteForEveryone bool   `json:"deleteForEveryone"`
}

// ChannelMembersRequest is the data of AddUserToChannel / RemoveUserFromChannel.
type ChannelMembersRequest struct {
	ChannelID string   `json:"channelId" validate:"required,max=64"`
	UserIDs   []string `json:"userIds" validate:"required,min=1,max=500,dive,required"`
}

// WorkspaceMembersRequest is the data of AddUserToWorkspace / RemoveUserFromWorkspace.
type WorkspaceMembersRequest struct {
	WorkspaceID string   `json:"workspaceId" validate:"required,max=64"`
	UserIDs     []string `json:"userIds" validate:"required,min=1,max=500,dive,required"`
}
