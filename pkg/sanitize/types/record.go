// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StorageMedium is the classifier's verdict for a device.
type StorageMedium string

const (
	MediumHDD  StorageMedium = "HDD"
	MediumSSD  StorageMedium = "SSD"
	MediumNVMe StorageMedium = "NVMe"
)

// ValidationResult is the tri-state verdict of the Verification Engine.
type ValidationResult string

const (
	ValidationUnknown ValidationResult = "unknown"
	ValidationPass    ValidationResult = "pass"
	ValidationFail    ValidationResult = "fail"
)

// CommandRecord is created by the Runner when a subprocess starts and
// finalized when it exits. The one later change is the Verification
// Engine replacing a sector read's Stdout with "Private".
type CommandRecord struct {
	CommandID   uuid.UUID `json:"command_id"`
	Command     string    `json:"command"`
	Description string    `json:"description,omitempty"`
	Stdout      string    `json:"stdout"`
	Stderr      string    `json:"stderr"`
	ReturnCode  *int      `json:"return_code"`
	Success     bool      `json:"success"`
	StartTime   float64   `json:"start_time"`
	EndTime     float64   `json:"end_time"`
}

// NewCommandRecord starts a Command Record with the given command string;
// Runner.Run finalizes it on exit.
func NewCommandRecord(command, description string) *CommandRecord {
	return &CommandRecord{
		CommandID:   uuid.New(),
		Command:     command,
		Description: description,
		StartTime:   epochSeconds(time.Now()),
	}
}

// Finish stamps end_time, return_code and success. Callers that override
// success for a tool-specific exit-code exception pass it explicitly.
func (c *CommandRecord) Finish(returnCode int, success bool, stdout, stderr string) {
	c.EndTime = epochSeconds(time.Now())
	c.ReturnCode = &returnCode
	c.Success = success
	if c.Stdout == "" {
		c.Stdout = stdout
	}
	if c.Stderr == "" {
		c.Stderr = stderr
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// StepRecord is created by an erasure helper, mutated only while the helper
// runs, then frozen.
type StepRecord struct {
	Step      *int             `json:"step,omitempty"`
	StartTime float64          `json:"start_time"`
	EndTime   float64          `json:"end_time"`
	Duration  float64          `json:"duration"`
	Commands  []*CommandRecord `json:"commands"`
	Success   bool             `json:"success"`
}

// NewStepRecord opens a step with the given 1-based ordinal.
func NewStepRecord(step int) *StepRecord {
	return &StepRecord{
		Step:      &step,
		StartTime: epochSeconds(time.Now()),
	}
}

// End freezes the step: duration is computed, and success is the logical
// AND of every contained command's success (an empty step is unsuccessful).
func (s *StepRecord) End() {
	s.EndTime = epochSeconds(time.Now())
	s.Duration = s.EndTime - s.StartTime

	if len(s.Commands) == 0 {
		s.Success = false
		return
	}
	success := true
	for _, c := range s.Commands {
		success = success && c.Success
	}
	s.Success = success
}

// ValidationRecord is created at orchestrator start; mutated by pre-verify
// (populates the bytes map) and post-verify (clears result if any sampled
// sector still reads the pre-erase bytes).
type ValidationRecord struct {
	Result   ValidationResult `json:"result"`
	Commands []*CommandRecord `json:"commands"`
	Data     map[int]string   `json:"data"`
}

// NewValidationRecord returns an empty, unknown-result Validation Record.
func NewValidationRecord() *ValidationRecord {
	return &ValidationRecord{
		Result: ValidationUnknown,
		Data:   make(map[int]string),
	}
}

// DeviceInfo is produced by Probe + Classifier and is immutable after
// construction. ExportData preserves the full probe payloads for
// archival even though only a handful of fields are consulted.
type DeviceInfo struct {
	DevPath       string          `json:"dev_path"`
	Manufacturer  string          `json:"manufacturer"`
	Model         string          `json:"model"`
	Serial        string          `json:"serial"`
	Connector     string          `json:"connector"`
	Size          uint64          `json:"size"`
	LogicalBlockSize int          `json:"logical_block_size"`
	StorageMedium StorageMedium   `json:"storage_medium"`
	ExportData    ExportData      `json:"export_data"`
}

// ExportData carries the two raw probe payloads verbatim, matching the
// export_data.smart/export_data.block shape the certificate preserves for
// archival.
type ExportData struct {
	Smart json.RawMessage `json:"smart"`
	Block json.RawMessage `json:"block"`
}

// SanitizeRecord is the durable artifact: everything else exists to
// populate it. It is created per device and serialized as JSON at the end.
type SanitizeRecord struct {
	RunID      uuid.UUID         `json:"run_id"`
	Steps      []*StepRecord     `json:"steps"`
	Validation *ValidationRecord `json:"validation"`
	DeviceInfo *DeviceInfo       `json:"device_info"`
	Method     *Method           `json:"method"`
	Result     bool              `json:"result"`
	Version    string            `json:"version"`
}

// ComputeResult applies the invariant from the data model: result is true
// iff (verification_enabled && validation.result == pass) ||
// (!verification_enabled && steps non-empty && last step succeeded).
func (r *SanitizeRecord) ComputeResult() {
	if r.Method != nil && r.Method.VerificationEnabled {
		r.Result = r.Validation != nil && r.Validation.Result == ValidationPass
		return
	}
	if len(r.Steps) == 0 {
		r.Result = false
		return
	}
	r.Result = r.Steps[len(r.Steps)-1].Success
}
