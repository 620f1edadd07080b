// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"maps"
	"net/http"
)

// Sanitize Domain Error Codes (2400-2449)
const (
	// Structural, per-device errors (2400-2419)
	SanitizeDeviceNotFound        = 2400 + iota // Device path not found by smartctl or lsblk
	SanitizeMountedVolume                       // Device path is currently mounted
	SanitizeInformationMismatch                 // Logical block size disagrees between sources
	SanitizeUnknownMedia                        // Classifier returned neither HDD nor SSD/NVMe
	SanitizeUnknownTool                         // Method references a tool with no dispatcher
	SanitizeUnknownMethod                       // Method name not found in the catalog
	SanitizeVerificationFailed                  // Pre-verify or post-verify failed
)

const (
	// Runner / probe errors (2420-2429)
	SanitizeCommandFailed = 2420 + iota // Subprocess exited non-success
	SanitizeProbeFailed                 // smartctl/lsblk probe failed
	SanitizeProbeParseFailed            // Probe JSON output failed to parse
	SanitizeMountsProbeFailed           // Mounted-volume cache population failed
)

const (
	// Driver-level errors (2430-2439)
	SanitizeOperatorCancelled = 2430 + iota // Ctrl-C at the bulk confirmation prompt
	SanitizeNoDevicesSelected                // Neither -d nor -a produced any device
)

func init() {
	sanitizeErrorDefinitions := map[ErrorCode]struct {
		message    string
		domain     Domain
		httpStatus int
	}{
		SanitizeDeviceNotFound: {
			"Device not found",
			DomainSanitize,
			http.StatusNotFound,
		},
		SanitizeMountedVolume: {
			"Device path is currently mounted",
			DomainSanitize,
			http.StatusConflict,
		},
		SanitizeInformationMismatch: {
			"Logical block size disagrees between probe sources",
			DomainSanitize,
			http.StatusUnprocessableEntity,
		},
		SanitizeUnknownMedia: {
			"Classifier could not determine storage medium",
			DomainSanitize,
			http.StatusUnprocessableEntity,
		},
		SanitizeUnknownTool: {
			"Method references a tool with no known dispatcher",
			DomainSanitize,
			http.StatusUnprocessableEntity,
		},
		SanitizeUnknownMethod: {
			"Unknown sanitize method name",
			DomainSanitize,
			http.StatusBadRequest,
		},
		SanitizeVerificationFailed: {
			"Verification engine reported failure",
			DomainSanitize,
			http.StatusUnprocessableEntity,
		},
		SanitizeCommandFailed: {
			"Sanitize subprocess command failed",
			DomainSanitize,
			http.StatusInternalServerError,
		},
		SanitizeProbeFailed: {
			"Device probe failed",
			DomainSanitize,
			http.StatusInternalServerError,
		},
		SanitizeProbeParseFailed: {
			"Failed to parse device probe output",
			DomainSanitize,
			http.StatusInternalServerError,
		},
		SanitizeMountsProbeFailed: {
			"Failed to populate mounted-volume cache",
			DomainSanitize,
			http.StatusInternalServerError,
		},
		SanitizeOperatorCancelled: {
			"Operator cancelled the confirmation prompt",
			DomainSanitize,
			http.StatusConflict,
		},
		SanitizeNoDevicesSelected: {
			"No devices selected for sanitize",
			DomainSanitize,
			http.StatusBadRequest,
		},
	}

	maps.Copy(errorDefinitions, sanitizeErrorDefinitions)
}
