package models_test

import (
	"testing"
	"time"

	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/testsupport"
	"google.golang.org/grpc/codes"
)

const jakarta = "Asia/Jakarta"

func jakartaTime(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(jakarta)
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	if err != nil {
		t.Fatalf("parse %s: %v", value, err)
	}
	return ts
}

func TestClosedPeriodLocksItsDatesAndEverythingBefore(t *testing.T) {
	db := testsupport.NewTestDB(t)

	period, err := models.ClosePeriod(db, "2026-02", "admin-1", jakarta)
	if err != nil {
		t.Fatalf("ClosePeriod: %v", err)
	}
	if period.Status != models.PeriodStatusClosed || period.ClosedByUid == nil || *period.ClosedByUid != "admin-1" {
		t.Fatalf("unexpected period %+v", period)
	}

	tests := []struct {
		name string
		at   string
		code codes.Code
	}{
		{"inside closed period", "2026-02-15 10:00", codes.FailedPrecondition},
		{"last day of closed period", "2026-02-28 23:59", codes.FailedPrecondition},
		{"earlier open month", "2026-01-20 08:00", codes.FailedPrecondition},
		{"next month", "2026-03-15 10:00", codes.OK},
		{"first minute after close", "2026-03-01 00:00", codes.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := models.AssertPeriodWritable(db, jakartaTime(t, tt.at), jakarta)
			if models.ErrorCode(err) != tt.code {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestPeriodBoundaryFollowsLedgerTimezone(t *testing.T) {
	db := testsupport.NewTestDB(t)
	if _, err := models.ClosePeriod(db, "2026-02", "admin-1", jakarta); err != nil {
		t.Fatalf("ClosePeriod: %v", err)
	}
	// 2026-02-28 18:00 UTC is already March 1st in Jakarta
	ts := time.Date(2026, 2, 28, 18, 0, 0, 0, time.UTC)
	if err := models.AssertPeriodWritable(db, ts, jakarta); err != nil {
		t.Fatalf("expected March write to pass, got %v", err)
	}
}

func TestClosePeriodIsIdempotent(t *testing.T) {
	db := testsupport.NewTestDB(t)

	if _, err := models.ClosePeriod(db, "2026-02", "admin-1", jakarta); err != nil {
		t.Fatalf("ClosePeriod: %v", err)
	}
	second, err := models.ClosePeriod(db, "2026-02", "admin-2", jakarta)
	if err != nil {
		t.Fatalf("second ClosePeriod: %v", err)
	}
	if *second.ClosedByUid != "admin-1" || second.ClosedAt == nil {
		t.Fatalf("expected the first close to stand, got %+v", second)
	}

	periods, err := models.ListPeriods(db)
	if err != nil || len(periods) != 1 {
		t.Fatalf("expected one period, got %d (%v)", len(periods), err)
	}

	for _, bad := range []string{"2026-2", "2026-13", "Feb 2026", ""} {
		if _, err := models.ClosePeriod(db, bad, "admin-1", jakarta); models.ErrorCode(err) != codes.InvalidArgument {
			t.Fatalf("%q: expected InvalidArgument, got %v", bad, err)
		}
	}
}
