package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewAppointmentRepo(t *testing.T) {
	db := testDB(t)

	repo := NewAppointmentRepo(db)
	if repo == nil {
		t.Fatal("NewAppointmentRepo() returned nil")
	}
}

func TestAppointmentRepo_Create_AssignsMaxPlusOne(t *testing.T) {
	db := testDB(t)
	repo := NewAppointmentRepo(db)
	ctx := context.Background()

	// Seed non-contiguous ids; the next id follows the maximum, not the count.
	for _, id := range []int64{1, 3, 7} {
		_, err := db.Exec(
			"INSERT INTO appointments (id, doctor, location, scheduled_at) VALUES (?, ?, ?, ?)",
			id, "Dr. Seed", "", "2026-01-01T10:00:00Z",
		)
		if err != nil {
			t.Fatalf("failed to seed appointment %d: %v", id, err)
		}
	}

	rec, err := repo.Create(ctx, "Dr. Chen", "Oncology", time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if rec.ID != 8 {
		t.Errorf("Create() id = %v, want 8", rec.ID)
	}
}

func TestAppointmentRepo_Create_FirstID(t *testing.T) {
	db := testDB(t)
	repo := NewAppointmentRepo(db)

	rec, err := repo.Create(context.Background(), "Dr. Chen", "", time.Now())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if rec.ID != 1 {
		t.Errorf("Create() first id = %v, want 1", rec.ID)
	}
}

func TestAppointmentRepo_GetByID(t *testing.T) {
	db := testDB(t)
	repo := NewAppointmentRepo(db)
	ctx := context.Background()

	scheduled := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	created, err := repo.Create(ctx, "Dr. Chen", "Oncology", scheduled)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name    string
		id      int64
		wantErr error
		check   func(AppointmentRecord) bool
	}{
		{
			name: "existing appointment",
			id:   created.ID,
			check: func(rec AppointmentRecord) bool {
				return rec.Doctor == "Dr. Chen" && rec.Location == "Oncology" && rec.ScheduledAt.Equal(scheduled)
			},
		},
		{
			name:    "non-existent appointment",
			id:      999,
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := repo.GetByID(ctx, tt.id)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetByID() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("GetByID() unexpected error: %v", err)
			}
			if tt.check != nil && !tt.check(rec) {
				t.Errorf("GetByID() result validation failed: %+v", rec)
			}
		})
	}
}

func TestAppointmentRepo_List_OrderedByScheduledInstant(t *testing.T) {
	db := testDB(t)
	repo := NewAppointmentRepo(db)
	ctx := context.Background()

	// Insert out of chronological order.
	times := []time.Time{
		time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 20, 11, 30, 0, 0, time.UTC),
	}
	for _, ts := range times {
		if _, err := repo.Create(ctx, "Dr. Chen", "", ts); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	recs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(recs) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].ScheduledAt.Before(recs[i-1].ScheduledAt) {
			t.Errorf("List() not ordered: index %d (%v) before index %d (%v)",
				i, recs[i].ScheduledAt, i-1, recs[i-1].ScheduledAt)
		}
	}
}

func TestAppointmentRepo_Update(t *testing.T) {
	db := testDB(t)
	repo := NewAppointmentRepo(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Dr. Chen", "Oncology", time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A rescheduled appointment shows up at its new place in the list.
	newTime := time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC)
	created.Doctor = "Dr. Okafor"
	created.ScheduledAt = newTime
	if err := repo.Update(ctx, created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Doctor != "Dr. Okafor" {
		t.Errorf("Update() doctor = %v, want Dr. Okafor", got.Doctor)
	}
	if !got.ScheduledAt.Equal(newTime) {
		t.Errorf("Update() scheduledAt = %v, want %v", got.ScheduledAt, newTime)
	}
}

func TestAppointmentRepo_Update_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewAppointmentRepo(db)

	err := repo.Update(context.Background(), AppointmentRecord{ID: 42, Doctor: "Dr. Chen"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestAppointmentRepo_Delete_Cascades(t *testing.T) {
	db := testDB(t)
	appointments := NewAppointmentRepo(db)
	questions := NewQuestionRepo(db)
	annotations := NewAnnotationRepo(db)
	ctx := context.Background()

	apt, err := appointments.Create(ctx, "Dr. Chen", "", time.Now())
	if err != nil {
		t.Fatalf("Create() appointment error = %v", err)
	}
	q, err := questions.Create(ctx, "Side effects?", "", false)
	if err != nil {
		t.Fatalf("Create() question error = %v", err)
	}
	if _, err := annotations.Add(ctx, apt.ID, &q.ID, 12.5, false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := annotations.Add(ctx, apt.ID, nil, 40.0, false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := appointments.Delete(ctx, apt.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := appointments.GetByID(ctx, apt.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	// No annotation or link may survive for the deleted appointment.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM annotations WHERE appointment_id = ?", apt.ID).Scan(&count); err != nil {
		t.Fatalf("Failed to count annotations: %v", err)
	}
	if count != 0 {
		t.Errorf("Delete() left %d annotations", count)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM question_links WHERE appointment_id = ?", apt.ID).Scan(&count); err != nil {
		t.Fatalf("Failed to count links: %v", err)
	}
	if count != 0 {
		t.Errorf("Delete() left %d question links", count)
	}

	// The question itself survives the unlink.
	if _, err := questions.GetByID(ctx, q.ID); err != nil {
		t.Errorf("GetByID() question after appointment delete error = %v", err)
	}
}

func TestAppointmentRepo_Delete_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewAppointmentRepo(db)

	err := repo.Delete(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
