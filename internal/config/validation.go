// internal/config/validation.go
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the run configuration. Violations are reported together
// as a single ConfigurationError so a user can fix the document in one pass.
func (rc *RunConfig) Validate() error {
	var problems []string

	if rc.SuccessThreshold < 0 || rc.SuccessThreshold > 1 {
		problems = append(problems, fmt.Sprintf("success_threshold must be within [0, 1], got %v", rc.SuccessThreshold))
	}
	if rc.PolitenessDelaySeconds < 0 {
		problems = append(problems, fmt.Sprintf("politeness_delay_seconds must not be negative, got %v", rc.PolitenessDelaySeconds))
	}
	if rc.RequestTimeoutSeconds <= 0 {
		problems = append(problems, fmt.Sprintf("request_timeout_seconds must be positive, got %d", rc.RequestTimeoutSeconds))
	}

	for i, ep := range rc.APIEndpoints {
		if ep.URL == "" {
			problems = append(problems, fmt.Sprintf("api_endpoints[%d]: url is required", i))
			continue
		}
		if _, err := url.ParseRequestURI(ep.URL); err != nil {
			problems = append(problems, fmt.Sprintf("api_endpoints[%d]: invalid url %q", i, ep.URL))
		}
		switch strings.ToUpper(ep.Method) {
		case "", "GET", "POST":
		default:
			problems = append(problems, fmt.Sprintf("api_endpoints[%d]: unsupported method %q", i, ep.Method))
		}
	}

	if len(problems) > 0 {
		return NewConfigurationError("run", fmt.Errorf("%s", strings.Join(problems, "; ")))
	}
	return nil
}
