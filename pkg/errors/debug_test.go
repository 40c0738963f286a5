package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpNilError(t *testing.T) {
	d := Dump(nil)
	if d.TopMessage != "" || len(d.Chain) != 0 {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}

func TestDumpWalksWrappedChain(t *testing.T) {
	inner := fmt.Errorf("driver failed")
	err := Wrap(CodeDependency, inner, "ping redis")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected code %s, got %s", CodeDependency, d.Code)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected chain to include the wrapped cause, got %v", d.Chain)
	}
}

func TestDumpExtractsPgxError(t *testing.T) {
	err := Wrap(CodeConflict, &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_accounts_email",
		TableName:      "accounts",
		Detail:         "Key (email)=(kasir1@toko.example) already exists.",
	}, "create account")

	d := Dump(err)
	if d.PGCode != "23505" {
		t.Fatalf("expected pg code 23505, got %q", d.PGCode)
	}
	if d.PGClass != "unique_violation" {
		t.Fatalf("expected unique_violation class, got %q", d.PGClass)
	}
	if d.PGConstraint != "idx_accounts_email" || d.PGTable != "accounts" {
		t.Fatalf("constraint detail not extracted: %+v", d)
	}
}

func TestDumpExtractsPqError(t *testing.T) {
	err := Wrap(CodeBusy, &pq.Error{Code: "55P03", Message: "could not obtain lock"}, "lock product")

	d := Dump(err)
	if d.PGCode != "55P03" {
		t.Fatalf("expected pg code 55P03, got %q", d.PGCode)
	}
	if d.PGClass != "lock_not_available" {
		t.Fatalf("expected lock_not_available class, got %q", d.PGClass)
	}
}

func TestDescribeSQLStateFallsBackToClass(t *testing.T) {
	if got := describeSQLState("23001"); got != "integrity_constraint_violation" {
		t.Fatalf("expected class fallback, got %q", got)
	}
	if got := describeSQLState("99999"); got != "" {
		t.Fatalf("expected empty for unknown class, got %q", got)
	}
}
