package domain

import "time"

// BusinessStatus represents the approval state of a business.
type BusinessStatus string

const (
	BusinessStatusPending   BusinessStatus = "PENDING"
	BusinessStatusApproved  BusinessStatus = "APPROVED"
	BusinessStatusSuspended BusinessStatus = "SUSPENDED"
)

// Business is a cargo owner's company. Only approved businesses publish orders.
type Business struct {
	ID                 string
	Name               string
	RegistrationNumber string
	Address            string
	ContactEmail       string
	Status             BusinessStatus
	CreatedAt          time.Time
}
