package services

import (
	"fmt"
	"strings"

	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/storage"
)

// The three required-field lists differ on purpose: upload checks the file
// set only, admin approval additionally requires the vehicle fields, and
// booking eligibility drops the license. Each check keeps its own list;
// unifying them would silently change accept/reject behavior.
var (
	uploadRequiredFields = []string{
		"nationalIdFile", "vehicleRegistrationFile", "insuranceFile", "document", "drivingLicenseFile",
	}
	approvalRequiredFields = []string{
		"carPlate", "carModel", "carColor", "drivingLicenseFile", "document",
		"nationalIdFile", "vehicleRegistrationFile", "insuranceFile",
	}
	eligibilityRequiredFields = []string{
		"carPlate", "carModel", "carColor", "document",
		"nationalIdFile", "vehicleRegistrationFile", "insuranceFile",
	}
)

// DriverService owns the driver admission/document/operational state
// machine. All writes are read-modify-write without locking; conflicting
// admin actions on the same driver are last-write-wins.
type DriverService struct {
	store storage.Store
}

// NewDriverService creates a driver state service.
func NewDriverService(store storage.Store) *DriverService {
	return &DriverService{store: store}
}

// UploadDocuments merges newly uploaded file names into the driver's stored
// set. The union must cover the upload-required file set or nothing is
// mutated. A successful upload forces re-review: document status and
// admission status return to pending and verification is cleared.
func (s *DriverService) UploadDocuments(driverID uint, files map[string]string) (*models.Driver, error) {
	driver, err := s.store.GetDriver(driverID)
	if err != nil {
		return nil, err
	}

	merged := *driver
	for field, filename := range files {
		if filename == "" {
			continue
		}
		switch field {
		case "nationalId":
			merged.NationalIDFile = filename
		case "vehicleRegistration":
			merged.VehicleRegistrationFile = filename
		case "insurance":
			merged.InsuranceFile = filename
		case "document":
			merged.Document = filename
		case "license":
			merged.DrivingLicenseFile = filename
		}
	}

	if missing := merged.MissingFields(uploadRequiredFields); len(missing) > 0 {
		return nil, &MissingDocumentsError{Missing: missing}
	}

	merged.DocumentStatus = models.DocumentStatusPending
	merged.Status = models.StatusPending
	merged.Verification = false
	if err := s.store.UpdateDriver(&merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Approve admits the driver. Requires the broader approval field set; on
// success admission status, document status, and verification all flip to
// their approved values.
func (s *DriverService) Approve(driverID uint) (*models.Driver, error) {
	driver, err := s.store.GetDriver(driverID)
	if err != nil {
		return nil, err
	}
	if missing := driver.MissingFields(approvalRequiredFields); len(missing) > 0 {
		return nil, &MissingDocumentsError{Missing: missing}
	}
	driver.Verification = true
	driver.DocumentStatus = models.DocumentStatusApproved
	driver.Status = models.StatusApproved
	if err := s.store.UpdateDriver(driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// ApproveDocuments marks the current document set reviewed and accepted
// without touching admission status.
func (s *DriverService) ApproveDocuments(driverID uint) (*models.Driver, error) {
	driver, err := s.store.GetDriver(driverID)
	if err != nil {
		return nil, err
	}
	if missing := driver.MissingFields(approvalRequiredFields); len(missing) > 0 {
		return nil, &MissingDocumentsError{Missing: missing}
	}
	driver.DocumentStatus = models.DocumentStatusApproved
	if err := s.store.UpdateDriver(driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// RejectDocuments marks the document set rejected. No precondition.
func (s *DriverService) RejectDocuments(driverID uint) (*models.Driver, error) {
	driver, err := s.store.GetDriver(driverID)
	if err != nil {
		return nil, err
	}
	driver.DocumentStatus = models.DocumentStatusRejected
	if err := s.store.UpdateDriver(driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// SetStatus applies an admin-chosen admission status. "active" is accepted
// as an alias for "approved"; approval re-checks document completeness.
// Each target status carries its own side effects on the other axes.
func (s *DriverService) SetStatus(driverID uint, status string) (*models.Driver, error) {
	driver, err := s.store.GetDriver(driverID)
	if err != nil {
		return nil, err
	}

	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized == "active" {
		normalized = models.StatusApproved
	}
	switch normalized {
	case models.StatusPending, models.StatusApproved, models.StatusSuspended, models.StatusRejected:
	default:
		return nil, ErrInvalidStatus
	}

	if normalized == models.StatusApproved {
		if missing := driver.MissingFields(approvalRequiredFields); len(missing) > 0 {
			return nil, &MissingDocumentsError{Missing: missing}
		}
	}

	driver.Status = normalized
	switch normalized {
	case models.StatusApproved:
		driver.Verification = true
		driver.DocumentStatus = models.DocumentStatusApproved
	case models.StatusPending:
		driver.Verification = false
		driver.DocumentStatus = models.DocumentStatusPending
	case models.StatusSuspended:
		driver.Availability = false
	case models.StatusRejected:
		driver.Verification = false
		driver.DocumentStatus = models.DocumentStatusRejected
	}

	if err := s.store.UpdateDriver(driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// ToggleAvailability flips the driver's online flag, refusing when either
// the admission status or the operational status forbids going online.
func (s *DriverService) ToggleAvailability(driverID uint) (*models.Driver, error) {
	driver, err := s.store.GetDriver(driverID)
	if err != nil {
		return nil, err
	}

	switch driver.Status {
	case models.StatusPending:
		return nil, ErrAccountPending
	case models.StatusSuspended:
		return nil, ErrAccountSuspended
	}
	switch driver.DriverStatus {
	case models.DriverStatusSuspended:
		return nil, ErrDriverStatusSuspended
	case models.DriverStatusInactive:
		return nil, ErrDriverStatusInactive
	}

	driver.Availability = !driver.Availability
	if err := s.store.UpdateDriver(driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// Eligibility is the derived booking-eligibility verdict for a driver.
type Eligibility struct {
	Eligible     bool     `json:"eligible"`
	Reason       string   `json:"reason,omitempty"`
	Status       string   `json:"status"`
	DriverStatus string   `json:"driverStatus"`
	Missing      []string `json:"missing,omitempty"`
}

// BookingEligibility computes whether the driver may accept bookings.
// approvalEligible deliberately ORs admission and document status; existing
// behavior depends on that even though it looks redundant.
func (s *DriverService) BookingEligibility(driverID uint) (*Eligibility, error) {
	driver, err := s.store.GetDriver(driverID)
	if err != nil {
		return nil, err
	}

	approvalEligible := driver.Status == models.StatusApproved || driver.DocumentStatus == models.DocumentStatusApproved
	statusEligible := driver.DriverStatus == models.DriverStatusActive
	eligible := approvalEligible && statusEligible

	result := &Eligibility{
		Eligible:     eligible,
		Status:       driver.Status,
		DriverStatus: driver.DriverStatus,
	}
	if eligible {
		return result, nil
	}

	result.Missing = driver.MissingFields(eligibilityRequiredFields)
	docState := driver.DocumentStatus
	if docState == "" {
		docState = "not submitted"
	}
	if !approvalEligible {
		if driver.Status != models.StatusApproved {
			result.Reason = fmt.Sprintf("Account status is '%s'. Approval required.", driver.Status)
		} else {
			result.Reason = fmt.Sprintf("Driver documents are '%s'. Approval required.", docState)
		}
	} else if !statusEligible {
		result.Reason = fmt.Sprintf("Driver status is '%s'. Active status required to accept bookings.", driver.DriverStatus)
	}
	return result, nil
}
