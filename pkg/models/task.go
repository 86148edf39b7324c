package models

import "time"

// TaskStatus represents the current state of a micro-task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has been created but not posted.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusPosted indicates the task has been posted as a tender.
	TaskStatusPosted TaskStatus = "posted"
	// TaskStatusInProgress indicates a deliverable is being generated.
	TaskStatusInProgress TaskStatus = "in-progress"
	// TaskStatusCompleted indicates a deliverable was generated and awaits evaluation.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates deliverable generation failed.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusAccepted indicates the deliverable passed evaluation and was paid.
	TaskStatusAccepted TaskStatus = "accepted"
	// TaskStatusRejected indicates the deliverable failed evaluation.
	TaskStatusRejected TaskStatus = "rejected"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusPosted, TaskStatusInProgress,
		TaskStatusCompleted, TaskStatusFailed, TaskStatusAccepted, TaskStatusRejected:
		return true
	default:
		return false
	}
}

// Terminal returns true once the task can no longer change state.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusAccepted, TaskStatusRejected, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// TaskCategory classifies the kind of work a micro-task requires.
type TaskCategory string

const (
	CategoryResearch          TaskCategory = "research"
	CategoryDesign            TaskCategory = "design"
	CategoryCopywriting       TaskCategory = "copywriting"
	CategoryFinancialModeling TaskCategory = "financial-modeling"
	CategoryStrategy          TaskCategory = "strategy"
	CategoryDevelopment       TaskCategory = "development"
	CategoryMarketing         TaskCategory = "marketing"
)

// Categories lists every known task category.
var Categories = []TaskCategory{
	CategoryResearch,
	CategoryDesign,
	CategoryCopywriting,
	CategoryFinancialModeling,
	CategoryStrategy,
	CategoryDevelopment,
	CategoryMarketing,
}

// Valid returns true if the category is a known value.
func (c TaskCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Capability tags the skills a provider needs to complete a task.
type Capability string

const (
	CapabilityText         Capability = "text"
	CapabilityCode         Capability = "code"
	CapabilityVision       Capability = "vision"
	CapabilityDataAnalysis Capability = "data-analysis"
	CapabilityCreative     Capability = "creative"
	CapabilityTechnical    Capability = "technical"
	CapabilityFinancial    Capability = "financial"
)

// MicroTask is one priced unit of work decomposed from a client brief.
type MicroTask struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Description is the specific, independently executable work item.
	Description string `json:"description"`
	// Category classifies the work required.
	Category TaskCategory `json:"category"`
	// Reward is the payment for an accepted deliverable, in MNEE.
	Reward float64 `json:"reward"`
	// EstimatedTime is the expected completion time in seconds.
	EstimatedTime int `json:"estimatedTime"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// TenderID is the synthetic tender identifier, assigned at posting.
	TenderID int64 `json:"tenderId,omitempty"`
	// Provider identifies who produced the deliverable, once assigned.
	Provider string `json:"provider,omitempty"`
	// DeliverableURI references the generated deliverable, once produced.
	DeliverableURI string `json:"deliverableURI,omitempty"`
	// RequiredCapabilities lists skills a provider needs for this task.
	RequiredCapabilities []Capability `json:"requiredCapabilities,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"createdAt"`
}
