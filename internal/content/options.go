package content

import "net/http"

// Option customizes a provider client.
type Option func(*settings)

type settings struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// WithModel overrides the provider model.
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		s.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		s.httpClient = hc
	}
}

func newSettings(defaultModel string, opts []Option) settings {
	s := settings{model: defaultModel}
	for _, opt := range opts {
		opt(&s)
	}

	return s
}
