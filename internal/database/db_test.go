package database

import (
	"strings"
	"testing"
)

func TestDSNUsesMatchedRowsReporting(t *testing.T) {
	dsn := DSN(Params{User: "app", Pass: "secret", Host: "db", Port: "3306", Name: "mintcraft"})
	if !strings.Contains(dsn, "clientFoundRows=true") {
		t.Fatalf("dsn %q missing clientFoundRows=true; the guarded ledger updates depend on matched-rows reporting", dsn)
	}
	if !strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/mintcraft?") {
		t.Fatalf("unexpected dsn prefix: %q", dsn)
	}
	for _, opt := range []string{"parseTime=true", "loc=UTC", "charset=utf8mb4"} {
		if !strings.Contains(dsn, opt) {
			t.Fatalf("dsn %q missing %s", dsn, opt)
		}
	}
}

func TestDSNOmitsEmptyPassword(t *testing.T) {
	dsn := DSN(Params{User: "app", Host: "localhost", Port: "3306", Name: "mintcraft"})
	if !strings.HasPrefix(dsn, "app@tcp(localhost:3306)/mintcraft?") {
		t.Fatalf("unexpected dsn: %q", dsn)
	}
	if strings.Contains(dsn, ":@") {
		t.Fatalf("empty password must not leave a dangling colon: %q", dsn)
	}
}
