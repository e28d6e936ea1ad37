// Package config loads stockportal's configuration.
//
// Configuration lives in a single YAML file, config.yaml, inside the
// configuration directory (default ~/.config/stockportal). A missing file
// is not an error: defaults are used. Two environment variables override
// the file:
//
//   - STOCKPORTAL_API_URL replaces api.baseURL
//   - STOCKPORTAL_STORAGE replaces storage.backend
//
// Example config.yaml:
//
//	api:
//	  baseURL: http://127.0.0.1:8000/api/v1
//	  timeout: 30s
//	  renewalTimeout: 15s
//	storage:
//	  backend: redis
//	  redis:
//	    addr: localhost:6379
//	    keyPrefix: "stockportal:credentials:"
//
// Validate reports every problem at once as ValidationErrors.
package config
