package adminapi

import (
	"net/http"
	"testing"
)

func TestCreateDeliveryBoyDuplicatePhone(t *testing.T) {
	db := newTestDB(t)
	body := `{"name":"Ravi","phone":"9800000400","password":"secret"}`

	c, rec := newTestContext(t, db, http.MethodPost, "/", body)
	if err := createDeliveryBoy(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("first create status = %d, body %s", rec.Code, rec.Body.String())
	}

	c2, rec2 := newTestContext(t, db, http.MethodPost, "/", body)
	if err := createDeliveryBoy(c2); err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if rec2.Code != http.StatusConflict {
		t.Fatalf("duplicate create status = %d, want 409", rec2.Code)
	}
	out := decodeEnvelope(t, rec2)
	if out["success"] != false || out["code"] != "CONFLICT" {
		t.Fatalf("envelope = %v", out)
	}
}
