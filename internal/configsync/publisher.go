package configsync

//go:generate mockgen -destination=mocks/publisher.go -package=mocks pet-tracker/internal/configsync Publisher

// Publisher is the outbound side of the broker connection.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
	ClearRetained(topic string) error
}
