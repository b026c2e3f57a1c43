package staff

import (
	"testing"

	"github.com/BruksfildServices01/barber-manager/internal/httperr"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "barber", "receptionist"} {
		if _, err := ParseRole(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
	_, err := ParseRole("owner")
	if !httperr.IsBusiness(err, "invalid_role") {
		t.Fatalf("expected business error, got %v", err)
	}
}

func TestActorCanActFor(t *testing.T) {
	barber := Actor{UserID: 3, Role: RoleBarber}
	if !barber.CanActFor(3) || barber.CanActFor(4) {
		t.Fatal("barber should only act for self")
	}

	rec := Actor{UserID: 9, Role: RoleReceptionist}
	if !rec.CanActFor(3) {
		t.Fatal("receptionist should act for any barber")
	}
}
