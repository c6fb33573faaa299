package types

// SMSGatewayConfig points to the HTTP gateway used for SMS delivery.
// An empty URL switches SMS sending into simulated mode.
type SMSGatewayConfig struct {
	URL    string `yaml:"url" json:"url"`
	From   string `yaml:"from" json:"from"`
	APIKey string `yaml:"api_key" json:"apiKey"`
}
