package internal

import "context"

// AuthAPI is the authentication part of the backend
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Register(ctx context.Context, reg Registration) (*AuthResult, error)
	Me(ctx context.Context) (*UserAccount, error)
}

// UsersAPI is the account part of the backend
type UsersAPI interface {
	Stats(ctx context.Context) (*Stats, error)
	Matches(ctx context.Context, limit int) ([]MatchCandidate, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*UserAccount, error)
	Profile(ctx context.Context, id string) (*UserAccount, error)
	UserReviews(ctx context.Context, userID string) ([]Review, error)
}

// SessionsAPI is the exchange session part of the backend
type SessionsAPI interface {
	ListSessions(ctx context.Context) ([]ExchangeSession, error)
	CreateSession(ctx context.Context, proposal SessionProposal) (*ExchangeSession, error)
	UpdateSessionStatus(ctx context.Context, id string, status SessionStatus) (*ExchangeSession, error)
}

// ReviewsAPI creates reviews
type ReviewsAPI interface {
	CreateReview(ctx context.Context, review Review) (*Review, error)
}

// MessagesAPI is the messaging part of the backend
type MessagesAPI interface {
	Threads(ctx context.Context) ([]MessageThread, error)
	Conversation(ctx context.Context, participantID string) ([]Message, error)
	SendMessage(ctx context.Context, participantID, content string) (*Message, error)
}

// SkillsAPI lists the skill catalog
type SkillsAPI interface {
	Skills(ctx context.Context) ([]CatalogSkill, error)
}

// TokenSource supplies the bearer token for outgoing requests; "" means none
type TokenSource interface {
	Token() string
}

// Account exposes the signed-in account to components that need its id or skills
type Account interface {
	CurrentUser() *UserAccount
}
