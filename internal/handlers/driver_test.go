package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/addisride/addisride-backend/internal/middleware"
	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/services"
	"github.com/addisride/addisride-backend/internal/storage"
)

func seedHandlerDriver(t *testing.T, store storage.Store, mutate func(*models.Driver)) *models.Driver {
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

// newDriverApp mounts the driver endpoints behind a stub that injects the
// authenticated identity, standing in for the JWT middleware.
func newDriverApp(t *testing.T, store storage.Store, driverID uint) *fiber.App {
	t.Helper()
	app := fiber.New()
	h := NewDriverHandler(store, services.NewDriverService(store), t.TempDir())
	identity := func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, driverID)
		c.Locals(middleware.LocalUserType, models.PartyDriver)
		return c.Next()
	}
	app.Get("/api/drivers/booking-eligibility", identity, h.BookingEligibility)
	app.Post("/api/drivers/profile/me/toggle-availability", identity, h.ToggleAvailability)
	return app
}

func decodeBody(t *testing.T, res *http.Response) map[string]interface{} {
	t.Helper()
	defer res.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}

func TestBookingEligibilityEndpointForbiddenWhenPending(t *testing.T) {
	store := storage.NewMemoryStore()
	d := seedHandlerDriver(t, store, nil)
	app := newDriverApp(t, store, d.ID)

	res, err := app.Test(httptest.NewRequest("GET", "/api/drivers/booking-eligibility", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", res.StatusCode)
	}

	body := decodeBody(t, res)
	if body["canAcceptBookings"] != false {
		t.Errorf("canAcceptBookings = %v, want false", body["canAcceptBookings"])
	}
	if body["message"] != "Account status is 'pending'. Approval required." {
		t.Errorf("message = %q", body["message"])
	}
	if body["status"] != models.StatusPending || body["driverStatus"] != models.DriverStatusActive {
		t.Errorf("status = %v, driverStatus = %v", body["status"], body["driverStatus"])
	}
}

func TestBookingEligibilityEndpointReportsMissing(t *testing.T) {
	store := storage.NewMemoryStore()
	d := seedHandlerDriver(t, store, func(d *models.Driver) {
		d.CarPlate = ""
	})
	app := newDriverApp(t, store, d.ID)

	res, err := app.Test(httptest.NewRequest("GET", "/api/drivers/booking-eligibility", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", res.StatusCode)
	}

	body := decodeBody(t, res)
	missing, ok := body["missing"].([]interface{})
	if !ok || len(missing) != 1 || missing[0] != "carPlate" {
		t.Errorf("missing = %v, want [carPlate]", body["missing"])
	}
}

func TestBookingEligibilityEndpointOK(t *testing.T) {
	store := storage.NewMemoryStore()
	d := seedHandlerDriver(t, store, func(d *models.Driver) {
		d.DocumentStatus = models.DocumentStatusApproved
	})
	app := newDriverApp(t, store, d.ID)

	res, err := app.Test(httptest.NewRequest("GET", "/api/drivers/booking-eligibility", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	body := decodeBody(t, res)
	if body["canAcceptBookings"] != true {
		t.Errorf("canAcceptBookings = %v, want true", body["canAcceptBookings"])
	}
	if body["driverStatus"] != models.DriverStatusActive {
		t.Errorf("driverStatus = %v, want active", body["driverStatus"])
	}
	if _, present := body["message"]; present {
		t.Error("eligible response carries a blocking message")
	}
}

func TestToggleAvailabilityEndpointResponseFields(t *testing.T) {
	store := storage.NewMemoryStore()
	d := seedHandlerDriver(t, store, func(d *models.Driver) {
		d.Status = models.StatusApproved
	})
	app := newDriverApp(t, store, d.ID)

	res, err := app.Test(httptest.NewRequest("POST", "/api/drivers/profile/me/toggle-availability", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	body := decodeBody(t, res)
	if body["availability"] != true {
		t.Errorf("availability = %v, want true", body["availability"])
	}
	if body["status"] != models.StatusApproved {
		t.Errorf("status = %v, want approved", body["status"])
	}
	if body["driverStatus"] != models.DriverStatusActive {
		t.Errorf("driverStatus = %v, want active", body["driverStatus"])
	}
}
