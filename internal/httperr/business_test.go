package httperr

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsBusinessUnwraps(t *testing.T) {
	err := fmt.Errorf("create: %w", ErrBusiness("time_conflict"))
	if !IsBusiness(err, "time_conflict") {
		t.Fatalf("expected wrapped business error to match")
	}
	if IsBusiness(err, "too_soon") {
		t.Fatalf("unexpected match on a different code")
	}
	if got := BusinessCode(err); got != "time_conflict" {
		t.Fatalf("expected time_conflict got %q", got)
	}
}

func TestIsExclusionConflict(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"})
	if !IsExclusionConflict(err) {
		t.Fatalf("expected 23P01 to be an exclusion conflict")
	}
	if IsExclusionConflict(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violation is not an exclusion conflict")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("expected 23505 to be a unique violation")
	}
}

func TestIsUniqueViolationAcceptsTranslatedError(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("create review: %w", gorm.ErrDuplicatedKey)) {
		t.Fatalf("expected gorm.ErrDuplicatedKey to be a unique violation")
	}
	if IsUniqueViolation(gorm.ErrRecordNotFound) {
		t.Fatalf("not found is not a unique violation")
	}
}
