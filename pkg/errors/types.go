/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package errors

import "net/http"

const (
	DomainConfig    Domain = "CONFIG"
	DomainCommand   Domain = "CMD"
	DomainSanitize  Domain = "SANITIZE"
	DomainLifecycle Domain = "LIFECYCLE"
	DomainSystem    Domain = "SYSTEM"
)

// ErrorCode represents unique error identifiers
type ErrorCode int

// Domain represents the subsystem where the error originated
type Domain string

type RodentError struct {
	Code       ErrorCode `json:"code"`
	Domain     Domain    `json:"domain"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`

	// Metadata carries additional contextual information that doesn't fit
	// into the standard error fields but is valuable for archival, logging,
	// and debugging (e.g. command, exit_code, stderr, device_id).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Error code ranges:
// 1000-1099: Configuration errors
// 1300-1399: Command execution
// 1500-1599: Lifecycle management
// 2400-2449: Sanitize domain errors
const (
	// Configuration Errors (1000-1099)
	ConfigNotFound    = 1000 + iota // Config file not found
	ConfigInvalid                   // Invalid config format
	ConfigLoadFailed                // Failed to load config
	ConfigWriteFailed                // Failed to write config
	ConfigParseError                 // Error parsing config
)

const (
	// Command Execution (1300-1399)
	CommandNotFound      = 1300 + iota // Command not found
	CommandExecution                   // Execution failed
	CommandTimeout                     // Command timed out
	CommandInvalidInput                // Invalid command input
	CommandOutputParse                 // Output parsing failed
	CommandPipe                        // Command pipe error
)

const (
	// Lifecycle Management (1500-1599)
	LifecyclePID      = 1500 + iota // PID file operation failed
	LifecycleShutdown               // Shutdown process error
	LifecycleSignal                 // Signal handling error
)

var errorDefinitions = map[ErrorCode]struct {
	message    string
	domain     Domain
	httpStatus int
}{
	ConfigNotFound: {
		"Config file not found",
		DomainConfig,
		http.StatusNotFound,
	},
	ConfigInvalid: {
		"Invalid config format",
		DomainConfig,
		http.StatusBadRequest,
	},
	ConfigLoadFailed: {
		"Failed to load config",
		DomainConfig,
		http.StatusInternalServerError,
	},
	ConfigWriteFailed: {
		"Failed to write config",
		DomainConfig,
		http.StatusInternalServerError,
	},
	ConfigParseError: {
		"Error parsing config",
		DomainConfig,
		http.StatusBadRequest,
	},
	CommandNotFound: {
		"Command not found",
		DomainCommand,
		http.StatusNotFound,
	},
	CommandExecution: {
		"Command execution failed",
		DomainCommand,
		http.StatusInternalServerError,
	},
	CommandTimeout: {
		"Command execution timed out",
		DomainCommand,
		http.StatusGatewayTimeout,
	},
	CommandInvalidInput: {
		"Invalid command input",
		DomainCommand,
		http.StatusBadRequest,
	},
	CommandOutputParse: {
		"Failed to parse command output",
		DomainCommand,
		http.StatusInternalServerError,
	},
	CommandPipe: {
		"Command pipe error",
		DomainCommand,
		http.StatusInternalServerError,
	},
	LifecyclePID: {
		"PID file operation failed",
		DomainLifecycle,
		http.StatusInternalServerError,
	},
	LifecycleShutdown: {
		"Shutdown process error",
		DomainLifecycle,
		http.StatusInternalServerError,
	},
	LifecycleSignal: {
		"Signal handling error",
		DomainLifecycle,
		http.StatusInternalServerError,
	},
}
