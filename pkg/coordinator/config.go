package coordinator

// Configuration for the coordinator client.
type Config struct {
	// Base URL of the coordinator REST API.
	BaseURL string `yaml:"baseUrl"`
	// URL of the coordinator event socket.
	WebsocketURL string `yaml:"websocketUrl"`
	// API key identifying the application.
	APIKey string `yaml:"apiKey"`
	// The user token used as the bearer credential.
	Token string `yaml:"token"`
	// ID of the user this client acts as.
	UserID string `yaml:"userId"`
}
