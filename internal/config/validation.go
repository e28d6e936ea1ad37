package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError is a problem with one configuration field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration and returns ValidationErrors listing
// every problem, or nil.
func (c Config) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs.Add("api.baseURL", "is required")
	} else if u, err := url.Parse(c.API.BaseURL); err != nil {
		errs.Add("api.baseURL", fmt.Sprintf("is not a valid URL: %v", err), c.API.BaseURL)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs.Add("api.baseURL", "must use http or https", c.API.BaseURL)
	} else if u.Host == "" {
		errs.Add("api.baseURL", "must include a host", c.API.BaseURL)
	}

	if c.API.Timeout < 0 {
		errs.Add("api.timeout", "must not be negative", c.API.Timeout)
	}
	if c.API.RenewalTimeout < 0 {
		errs.Add("api.renewalTimeout", "must not be negative", c.API.RenewalTimeout)
	}
	for i, p := range c.API.ExemptPaths {
		if !strings.HasPrefix(p, "/") {
			errs.Add(fmt.Sprintf("api.exemptPaths[%d]", i), "must start with '/'", p)
		}
	}

	switch c.Storage.Backend {
	case StorageFile, StorageMemory:
	case StorageRedis:
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			errs.Add("storage.redis.addr", "is required for the redis backend")
		}
		if c.Storage.Redis.DB < 0 {
			errs.Add("storage.redis.db", "must not be negative", c.Storage.Redis.DB)
		}
	default:
		errs.Add("storage.backend", "must be one of file, memory, redis", string(c.Storage.Backend))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
