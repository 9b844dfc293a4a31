package services

import (
	"errors"
	"testing"

	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/storage"
)

func seedDriver(t *testing.T, store storage.Store, mutate func(*models.Driver)) *models.Driver {
	t.Helper()
	d := &models.Driver{
		Name:     "Abebe Kebede",
		Phone:    "0911223344",
		Password: "hashed",

		DrivingLicenseFile:      "license.pdf",
		Document:                "doc.pdf",
		NationalIDFile:          "id.pdf",
		VehicleRegistrationFile: "reg.pdf",
		InsuranceFile:           "insurance.pdf",

		CarPlate: "AA-123-45",
		CarModel: "Vitz",
		CarColor: "white",

		Status:       models.StatusPending,
		DriverStatus: models.DriverStatusActive,
	}
	if mutate != nil {
		mutate(d)
	}
	created, err := store.CreateDriver(d)
	if err != nil {
		t.Fatalf("CreateDriver: %v", err)
	}
	return created
}

func TestApproveRequiresVehicleFields(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewDriverService(store)
	d := seedDriver(t, store, func(d *models.Driver) {
		d.CarPlate = ""
		d.CarColor = ""
	})

	_, err := svc.Approve(d.ID)
	var missing *MissingDocumentsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingDocumentsError", err)
	}
	if len(missing.Missing) != 2 {
		t.Errorf("missing = %v, want carPlate and carColor", missing.Missing)
	}

	stored, _ := store.GetDriver(d.ID)
	if stored.Status != models.StatusPending {
		t.Errorf("rejected approval mutated status to %q", stored.Status)
	}
}

func TestApproveFlipsAllAxes(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewDriverService(store)
	d := seedDriver(t, store, nil)

	updated, err := svc.Approve(d.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if updated.Status != models.StatusApproved || updated.DocumentStatus != models.DocumentStatusApproved || !updated.Verification {
		t.Errorf("after approve: status=%q docStatus=%q verification=%v", updated.Status, updated.DocumentStatus, updated.Verification)
	}
}

func TestUploadDocumentsMergeAndReset(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewDriverService(store)
	d := seedDriver(t, store, func(d *models.Driver) {
		d.Status = models.StatusApproved
		d.DocumentStatus = models.DocumentStatusApproved
		d.Verification = true
		d.InsuranceFile = ""
	})

	// Missing insurance and none uploaded: refused, nothing mutated.
	_, err := svc.UploadDocuments(d.ID, map[string]string{"license": "license2.pdf"})
	var missing *MissingDocumentsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingDocumentsError", err)
	}
	stored, _ := store.GetDriver(d.ID)
	if stored.DrivingLicenseFile != "license.pdf" {
		t.Errorf("refused upload mutated license to %q", stored.DrivingLicenseFile)
	}

	// Completing the set merges the new files and forces re-review.
	updated, err := svc.UploadDocuments(d.ID, map[string]string{"license": "license2.pdf", "insurance": "insurance2.pdf"})
	if err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}
	if updated.DrivingLicenseFile != "license2.pdf" || updated.InsuranceFile != "insurance2.pdf" {
		t.Errorf("merge lost files: license=%q insurance=%q", updated.DrivingLicenseFile, updated.InsuranceFile)
	}
	if updated.Status != models.StatusPending || updated.DocumentStatus != models.DocumentStatusPending || updated.Verification {
		t.Errorf("upload did not reset review state: status=%q docStatus=%q verification=%v", updated.Status, updated.DocumentStatus, updated.Verification)
	}
}

func TestSetStatusActiveAlias(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewDriverService(store)
	d := seedDriver(t, store, nil)

	updated, err := svc.SetStatus(d.ID, "  Active ")
	if err != nil {
		t.Fatalf("SetStatus(active): %v", err)
	}
	if updated.Status != models.StatusApproved {
		t.Errorf("status = %q, want approved", updated.Status)
	}
}

func TestSetStatusSideEffects(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewDriverService(store)

	t.Run("suspended drops availability", func(t *testing.T) {
		d := seedDriver(t, store, func(d *models.Driver) {
			d.Availability = true
		})
		updated, err := svc.SetStatus(d.ID, "suspended")
		if err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
		if updated.Availability {
			t.Error("suspension left the driver online")
		}
	})

	t.Run("rejected clears verification", func(t *testing.T) {
		d := seedDriver(t, store, func(d *models.Driver) {
			d.Verification = true
			d.DocumentStatus = models.DocumentStatusApproved
		})
		updated, err := svc.SetStatus(d.ID, "rejected")
		if err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
		if updated.Verification || updated.DocumentStatus != models.DocumentStatusRejected {
			t.Errorf("after reject: verification=%v docStatus=%q", updated.Verification, updated.DocumentStatus)
		}
	})

	t.Run("unknown status refused", func(t *testing.T) {
		d := seedDriver(t, store, nil)
		if _, err := svc.SetStatus(d.ID, "banana"); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("err = %v, want ErrInvalidStatus", err)
		}
	})
}

func TestToggleAvailabilityGuards(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewDriverService(store)

	tests := []struct {
		name   string
		mutate func(*models.Driver)
		want   error
	}{
		{"pending admission", nil, ErrAccountPending},
		{"suspended admission", func(d *models.Driver) { d.Status = models.StatusSuspended }, ErrAccountSuspended},
		{"suspended driver status", func(d *models.Driver) {
			d.Status = models.StatusApproved
			d.DriverStatus = models.DriverStatusSuspended
		}, ErrDriverStatusSuspended},
		{"inactive driver status", func(d *models.Driver) {
			d.Status = models.StatusApproved
			d.DriverStatus = models.DriverStatusInactive
		}, ErrDriverStatusInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := seedDriver(t, store, tt.mutate)
			if _, err := svc.ToggleAvailability(d.ID); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("approved active toggles", func(t *testing.T) {
		d := seedDriver(t, store, func(d *models.Driver) { d.Status = models.StatusApproved })
		updated, err := svc.ToggleAvailability(d.ID)
		if err != nil {
			t.Fatalf("ToggleAvailability: %v", err)
		}
		if !updated.Availability {
			t.Error("toggle did not flip availability on")
		}
	})
}

func TestBookingEligibility(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewDriverService(store)

	t.Run("pending admission blocks", func(t *testing.T) {
		d := seedDriver(t, store, nil)
		e, err := svc.BookingEligibility(d.ID)
		if err != nil {
			t.Fatalf("BookingEligibility: %v", err)
		}
		if e.Eligible {
			t.Error("pending driver reported eligible")
		}
		if e.Reason != "Account status is 'pending'. Approval required." {
			t.Errorf("reason = %q", e.Reason)
		}
	})

	t.Run("document approval alone suffices", func(t *testing.T) {
		// Admission still pending but documents approved: the approval
		// check ORs the two axes.
		d := seedDriver(t, store, func(d *models.Driver) {
			d.DocumentStatus = models.DocumentStatusApproved
		})
		e, err := svc.BookingEligibility(d.ID)
		if err != nil {
			t.Fatalf("BookingEligibility: %v", err)
		}
		if !e.Eligible {
			t.Errorf("want eligible via document approval, reason = %q", e.Reason)
		}
	})

	t.Run("inactive driver status blocks", func(t *testing.T) {
		d := seedDriver(t, store, func(d *models.Driver) {
			d.Status = models.StatusApproved
			d.DriverStatus = models.DriverStatusInactive
		})
		e, err := svc.BookingEligibility(d.ID)
		if err != nil {
			t.Fatalf("BookingEligibility: %v", err)
		}
		if e.Eligible {
			t.Error("inactive driver reported eligible")
		}
		if e.Reason != "Driver status is 'inactive'. Active status required to accept bookings." {
			t.Errorf("reason = %q", e.Reason)
		}
	})

	t.Run("missing list excludes license", func(t *testing.T) {
		d := seedDriver(t, store, func(d *models.Driver) {
			d.DrivingLicenseFile = ""
			d.CarPlate = ""
		})
		e, err := svc.BookingEligibility(d.ID)
		if err != nil {
			t.Fatalf("BookingEligibility: %v", err)
		}
		for _, f := range e.Missing {
			if f == "drivingLicenseFile" {
				t.Error("license appeared in the eligibility missing list")
			}
		}
		if len(e.Missing) != 1 || e.Missing[0] != "carPlate" {
			t.Errorf("missing = %v, want [carPlate]", e.Missing)
		}
	})
}
