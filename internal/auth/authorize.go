package auth

import "context"

// ResourceKind names the kind of object an action targets.
type ResourceKind string

const (
	ResourceChannel   ResourceKind = "channel"
	ResourceWorkspace ResourceKind = "workspace"
	ResourceUser      ResourceKind = "user"
	ResourceMessage   ResourceKind = "message"
)

// Resource identifies the object of a capability check.
type Resource struct {
	Kind ResourceKind
	ID   string
}

func Channel(id string) Resource   { return Resource{Kind: ResourceChannel, ID: id} }
func Workspace(id string) Resource { return Resource{Kind: ResourceWorkspace, ID: id} }
func User(id string) Resource      { return Resource{Kind: ResourceUser, ID: id} }
func Message(id string) Resource   { return Resource{Kind: ResourceMessage, ID: id} }

// Action is what the caller wants to do with a resource.
type Action string

const (
	ActionPost          Action = "post"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionManageMembers Action = "manage_members"
)

// Authorizer is the single capability check run before REST handlers and hub
// operations alike. A nil error means allow; a denial is an apperr Authorization error.
type Authorizer interface {
	Authorize(ctx context.Context, id Identity, res Resource, action Action) error
}

// AuthorizerFunc adapts an ordinary function to Authorizer.
type AuthorizerFunc func(ctx context.Context, id Identity, res Resource, action Action) error

// Authorize calls f.
func (f AuthorizerFunc) Authorize(ctx context.Context, id Identity, res Resource, action Action) error {
	return f(ctx, id, res, action)
}

// AllowAll is an Authorizer that permits everything. Useful for tests and tooling.
var AllowAll Authorizer = AuthorizerFunc(func(context.Context, Identity, Resource, Action) error { return nil })
