package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"medagenda/backend/internal/domain"
	"medagenda/backend/internal/service/accounts"
	"medagenda/backend/internal/service/auth"
	"medagenda/backend/internal/service/booking"
	"medagenda/backend/internal/service/practitioners"
	"medagenda/backend/internal/service/stats"
	"medagenda/backend/internal/store"
	"medagenda/backend/internal/token"
)

// memStore backs the whole HTTP surface in memory for end-to-end
// handler tests.
type memStore struct {
	mu sync.Mutex

	users              map[uuid.UUID]domain.User
	addresses          map[uuid.UUID]domain.Address
	patients           map[uuid.UUID]domain.Patient
	practitionerRecs   map[uuid.UUID]domain.Practitioner
	specialtiesByPract map[uuid.UUID][]string
	rules              map[uuid.UUID][]domain.WorkHourRule
	appointments       map[uuid.UUID]domain.Appointment
}

func newMemStore() *memStore {
	return &memStore{
		users:              map[uuid.UUID]domain.User{},
		addresses:          map[uuid.UUID]domain.Address{},
		patients:           map[uuid.UUID]domain.Patient{},
		practitionerRecs:   map[uuid.UUID]domain.Practitioner{},
		specialtiesByPract: map[uuid.UUID][]string{},
		rules:              map[uuid.UUID][]domain.WorkHourRule{},
		appointments:       map[uuid.UUID]domain.Appointment{},
	}
}

func (m *memStore) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (m *memStore) PatientByCPF(ctx context.Context, cpf string) (domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.CPF == cpf {
			return p, nil
		}
	}
	return domain.Patient{}, store.ErrNotFound
}

func (m *memStore) PractitionerByCPF(ctx context.Context, cpf string) (domain.Practitioner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.practitionerRecs {
		if p.CPF == cpf {
			return p, nil
		}
	}
	return domain.Practitioner{}, store.ErrNotFound
}

func (m *memStore) PatientByUserID(ctx context.Context, userID uuid.UUID) (domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.UserID == userID {
			return p, nil
		}
	}
	return domain.Patient{}, store.ErrNotFound
}

func (m *memStore) PractitionerByUserID(ctx context.Context, userID uuid.UUID) (domain.Practitioner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.practitionerRecs {
		if p.UserID == userID {
			return p, nil
		}
	}
	return domain.Practitioner{}, store.ErrNotFound
}

func (m *memStore) CreatePatientAccount(ctx context.Context, in store.NewPatientAccount) (domain.User, domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user := in.User
	user.ID = uuid.New()
	address := in.Address
	address.ID = uuid.New()
	patient := in.Patient
	patient.ID = uuid.New()
	patient.UserID = user.ID
	patient.AddressID = address.ID

	m.users[user.ID] = user
	m.addresses[address.ID] = address
	m.patients[patient.ID] = patient
	return user, patient, nil
}

func (m *memStore) CreatePractitionerAccount(ctx context.Context, in store.NewPractitionerAccount) (domain.User, domain.Practitioner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user := in.User
	user.ID = uuid.New()
	address := in.Address
	address.ID = uuid.New()
	practitioner := in.Practitioner
	practitioner.ID = uuid.New()
	practitioner.UserID = user.ID
	practitioner.AddressID = address.ID

	m.users[user.ID] = user
	m.addresses[address.ID] = address
	m.practitionerRecs[practitioner.ID] = practitioner
	m.specialtiesByPract[practitioner.ID] = in.Specialties
	return user, practitioner, nil
}

func (m *memStore) PatientsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Patient{}
	for _, id := range ids {
		if p, ok := m.patients[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CountPatients(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.patients)), nil
}

func (m *memStore) CountPractitioners(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.practitionerRecs)), nil
}

func (m *memStore) ReplaceRules(ctx context.Context, practitionerID uuid.UUID, rules []domain.WorkHourRule) ([]domain.WorkHourRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]domain.WorkHourRule, len(rules))
	for i, r := range rules {
		r.ID = uuid.New()
		r.PractitionerID = practitionerID
		stored[i] = r
	}
	m.rules[practitionerID] = stored
	return stored, nil
}

func (m *memStore) RulesForDay(ctx context.Context, practitionerID uuid.UUID, dayOfWeek int) ([]domain.WorkHourRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.WorkHourRule{}
	for _, r := range m.rules[practitionerID] {
		if r.DayOfWeek == dayOfWeek {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) RulesFor(ctx context.Context, practitionerID uuid.UUID) ([]domain.WorkHourRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.WorkHourRule{}, m.rules[practitionerID]...), nil
}

func (m *memStore) Book(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.PractitionerID == appt.PractitionerID && a.StartTime.Equal(appt.StartTime) && a.Status == domain.AppointmentScheduled {
			return domain.Appointment{}, store.ErrConflict
		}
	}
	appt.ID = uuid.New()
	appt.Status = domain.AppointmentScheduled
	m.appointments[appt.ID] = appt
	return appt, nil
}

func (m *memStore) FindConflict(ctx context.Context, practitionerID uuid.UUID, start time.Time) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.PractitionerID == practitionerID && a.StartTime.Equal(start) && a.Status == domain.AppointmentScheduled {
			return a, nil
		}
	}
	return domain.Appointment{}, store.ErrNotFound
}

func (m *memStore) ListForDay(ctx context.Context, practitionerID uuid.UUID, dayStart, dayEnd time.Time) ([]domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Appointment{}
	for _, a := range m.appointments {
		if a.PractitionerID == practitionerID && a.Status == domain.AppointmentScheduled &&
			!a.StartTime.Before(dayStart) && !a.StartTime.After(dayEnd) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) GetWithActors(ctx context.Context, id uuid.UUID) (domain.AppointmentWithActors, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return domain.AppointmentWithActors{}, store.ErrNotFound
	}
	return domain.AppointmentWithActors{
		Appointment:        a,
		PatientUserID:      m.patients[a.PatientID].UserID,
		PractitionerUserID: m.practitionerRecs[a.PractitionerID].UserID,
	}, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.AppointmentStatus) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || a.Status != from {
		return domain.Appointment{}, store.ErrNotFound
	}
	a.Status = to
	m.appointments[id] = a
	return a, nil
}

func (m *memStore) SetRating(ctx context.Context, id uuid.UUID, score int, comment *string) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || a.RatingScore != nil {
		return domain.Appointment{}, store.ErrNotFound
	}
	a.RatingScore = &score
	a.RatingComment = comment
	m.appointments[id] = a
	return a, nil
}

func (m *memStore) ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]domain.PatientAppointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.PatientAppointment{}
	for _, a := range m.appointments {
		if a.PatientID != patientID || a.Status != domain.AppointmentScheduled {
			continue
		}
		p := m.practitionerRecs[a.PractitionerID]
		out = append(out, domain.PatientAppointment{
			Appointment:          a,
			PractitionerName:     p.Name,
			PractitionerPhotoURL: p.PhotoURL,
			Address:              m.addresses[a.AddressID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memStore) ActivePatientIDs(ctx context.Context, practitionerID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[uuid.UUID]struct{}{}
	out := []uuid.UUID{}
	for _, a := range m.appointments {
		if a.PractitionerID != practitionerID || a.Status != domain.AppointmentScheduled {
			continue
		}
		if _, ok := seen[a.PatientID]; ok {
			continue
		}
		seen[a.PatientID] = struct{}{}
		out = append(out, a.PatientID)
	}
	return out, nil
}

func (m *memStore) PractitionerIDsWithMinRating(ctx context.Context, min float64) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := map[uuid.UUID][2]int{}
	for _, a := range m.appointments {
		if a.RatingScore == nil {
			continue
		}
		s := sums[a.PractitionerID]
		sums[a.PractitionerID] = [2]int{s[0] + *a.RatingScore, s[1] + 1}
	}
	out := []uuid.UUID{}
	for id, s := range sums {
		if float64(s[0])/float64(s[1]) >= min {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memStore) AverageRating(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum, n := 0, 0
	for _, a := range m.appointments {
		if a.RatingScore != nil {
			sum += *a.RatingScore
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Practitioner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.practitionerRecs[id]
	if !ok {
		return domain.Practitioner{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) Search(ctx context.Context, filter store.PractitionerFilter) ([]domain.PractitionerListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inIDSet := func(id uuid.UUID) bool {
		if filter.IDs == nil {
			return true
		}
		for _, want := range filter.IDs {
			if want == id {
				return true
			}
		}
		return false
	}

	out := []domain.PractitionerListing{}
	for id, p := range m.practitionerRecs {
		if !inIDSet(id) {
			continue
		}
		address := m.addresses[p.AddressID]
		if filter.City != "" && !strings.EqualFold(address.City, filter.City) {
			continue
		}
		if filter.Specialty != "" {
			found := false
			for _, s := range m.specialtiesByPract[id] {
				if strings.Contains(strings.ToLower(s), strings.ToLower(filter.Specialty)) {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		scores := []int{}
		for _, a := range m.appointments {
			if a.PractitionerID == id && a.RatingScore != nil {
				scores = append(scores, *a.RatingScore)
			}
		}
		out = append(out, domain.PractitionerListing{
			Practitioner: p,
			Address:      address,
			Specialties:  m.specialtiesByPract[id],
			RatingScores: scores,
		})
	}
	return out, nil
}

func (m *memStore) UpdateProfile(ctx context.Context, id uuid.UUID, changes store.PractitionerProfileUpdate) (domain.Practitioner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.practitionerRecs[id]
	if !ok {
		return domain.Practitioner{}, store.ErrNotFound
	}
	if changes.Description != nil {
		p.Description = changes.Description
	}
	if changes.ConsultationFee != nil {
		p.ConsultationFee = changes.ConsultationFee
	}
	if changes.AcceptsInsurance != nil {
		p.AcceptsInsurance = *changes.AcceptsInsurance
	}
	if changes.HomeVisits != nil {
		p.HomeVisits = *changes.HomeVisits
	}
	m.practitionerRecs[id] = p
	return p, nil
}

func (m *memStore) SetPhotoURL(ctx context.Context, id uuid.UUID, url *string) (domain.Practitioner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.practitionerRecs[id]
	if !ok {
		return domain.Practitioner{}, store.ErrNotFound
	}
	p.PhotoURL = url
	m.practitionerRecs[id] = p
	return p, nil
}

type nopPhotos struct{}

func (nopPhotos) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func (nopPhotos) Remove(ctx context.Context, key string) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()

	mem := newMemStore()
	tokens, err := token.NewManager("test-secret", "1h")
	if err != nil {
		t.Fatalf("token.NewManager error: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := NewServer(ServerConfig{
		Logger:          logger,
		Tokens:          tokens,
		Accounts:        mem,
		AccountsService: accounts.NewService(mem),
		AuthService:     auth.NewService(mem, tokens),
		BookingService:  booking.NewService(mem, mem, mem),
		PractitionerSvc: practitioners.NewService(mem, mem, mem, mem, nopPhotos{}),
		StatsService:    stats.NewService(mem, mem, nil, time.Minute),
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, mem
}

func doJSON(t *testing.T, method, url, bearer string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func registerAndLogin(t *testing.T, base string) (patientToken, practitionerToken, practitionerID string) {
	t.Helper()

	resp, raw := doJSON(t, http.MethodPost, base+"/api/patients", "", map[string]any{
		"email":            "ana@example.com",
		"password":         "s3cret-pass",
		"name":             "Ana Souza",
		"cpf":              "11111111111",
		"self_responsible": true,
		"birth_date":       "1990-03-14",
		"address":          map[string]any{"street": "Rua A", "number": "1", "city": "Recife", "state": "PE"},
		"phone":            map[string]any{"area_code": "81", "number": "999990000"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register patient: status %d, body %s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, http.MethodPost, base+"/api/practitioners", "", map[string]any{
		"email":           "doc@example.com",
		"password":        "s3cret-pass",
		"name":            "Dr. Bruno",
		"cpf":             "33333333333",
		"registry_type":   "CRM",
		"registry_number": "12345",
		"registry_state":  "PE",
		"specialties":     []string{"Psiquiatria"},
		"address":         map[string]any{"street": "Rua B", "number": "2", "city": "Recife", "state": "PE"},
		"phone":           map[string]any{"area_code": "81", "number": "988880000"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register practitioner: status %d, body %s", resp.StatusCode, raw)
	}
	var pract practitionerResponse
	if err := json.Unmarshal(raw, &pract); err != nil {
		t.Fatalf("unmarshal practitioner: %v", err)
	}

	login := func(email, kind string) string {
		resp, raw := doJSON(t, http.MethodPost, base+"/api/auth/login", "", map[string]any{
			"email":    email,
			"password": "s3cret-pass",
			"kind":     kind,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("login %s: status %d, body %s", email, resp.StatusCode, raw)
		}
		var session loginResponse
		if err := json.Unmarshal(raw, &session); err != nil {
			t.Fatalf("unmarshal session: %v", err)
		}
		return session.Token
	}

	return login("ana@example.com", "paciente"), login("doc@example.com", "profissional"), pract.ID.String()
}

func TestEndToEnd_ScheduleAvailabilityAndBooking(t *testing.T) {
	ts, _ := newTestServer(t)
	patientTok, practTok, practID := registerAndLogin(t, ts.URL)

	// Thursday 09:00-12:00.
	resp, raw := doJSON(t, http.MethodPut, ts.URL+"/api/practitioners/me/schedule", practTok, map[string]any{
		"entries": []map[string]any{
			{"day_of_week": 4, "start": "09:00", "end": "12:00"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("replace schedule: status %d, body %s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/practitioners/"+practID+"/availability?date=2026-01-01", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("availability: status %d, body %s", resp.StatusCode, raw)
	}
	var avail availabilityResponse
	if err := json.Unmarshal(raw, &avail); err != nil {
		t.Fatalf("unmarshal availability: %v", err)
	}
	if len(avail.Slots) != 3 || avail.Slots[0] != "09:00" {
		t.Fatalf("slots = %v, want [09:00 10:00 11:00]", avail.Slots)
	}

	book := func(tok string) (*http.Response, []byte) {
		return doJSON(t, http.MethodPost, ts.URL+"/api/appointments", tok, map[string]any{
			"practitioner_id": practID,
			"start_time":      "2026-01-01T10:00:00Z",
		})
	}

	resp, raw = book(patientTok)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("book: status %d, body %s", resp.StatusCode, raw)
	}
	var appt appointmentResponse
	if err := json.Unmarshal(raw, &appt); err != nil {
		t.Fatalf("unmarshal appointment: %v", err)
	}
	if appt.Status != "SCHEDULED" {
		t.Errorf("status = %q, want SCHEDULED", appt.Status)
	}

	resp, raw = book(patientTok)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("double book: status %d, body %s", resp.StatusCode, raw)
	}

	// The booked slot disappears from availability.
	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/practitioners/"+practID+"/availability?date=2026-01-01", "", nil)
	if err := json.Unmarshal(raw, &avail); err != nil {
		t.Fatalf("unmarshal availability: %v", err)
	}
	for _, slot := range avail.Slots {
		if slot == "10:00" {
			t.Fatalf("slots = %v, 10:00 should be gone", avail.Slots)
		}
	}

	// Booking outside the grid is rejected.
	resp, raw = doJSON(t, http.MethodPost, ts.URL+"/api/appointments", patientTok, map[string]any{
		"practitioner_id": practID,
		"start_time":      "2026-01-01T20:00:00Z",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("out-of-hours book: status %d, body %s", resp.StatusCode, raw)
	}

	// Practitioner sees the patient in the active roster.
	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/practitioners/me/patients", practTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("active patients: status %d, body %s", resp.StatusCode, raw)
	}
	var roster []activePatientResponse
	if err := json.Unmarshal(raw, &roster); err != nil {
		t.Fatalf("unmarshal roster: %v", err)
	}
	if len(roster) != 1 || roster[0].Name != "Ana Souza" {
		t.Fatalf("roster = %+v", roster)
	}
}

func TestEndToEnd_FinalizeRateAndStats(t *testing.T) {
	ts, _ := newTestServer(t)
	patientTok, practTok, practID := registerAndLogin(t, ts.URL)

	doJSON(t, http.MethodPut, ts.URL+"/api/practitioners/me/schedule", practTok, map[string]any{
		"entries": []map[string]any{{"day_of_week": 4, "start": "09:00", "end": "12:00"}},
	})

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/api/appointments", patientTok, map[string]any{
		"practitioner_id": practID,
		"start_time":      "2026-01-01T09:00:00Z",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("book: status %d, body %s", resp.StatusCode, raw)
	}
	var appt appointmentResponse
	if err := json.Unmarshal(raw, &appt); err != nil {
		t.Fatalf("unmarshal appointment: %v", err)
	}
	apptURL := fmt.Sprintf("%s/api/appointments/%s", ts.URL, appt.ID)

	// Rating before finalizing is rejected.
	resp, raw = doJSON(t, http.MethodPost, apptURL+"/rating", patientTok, map[string]any{"score": 5})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("premature rating: status %d, body %s", resp.StatusCode, raw)
	}

	// The practitioner finalizes.
	resp, raw = doJSON(t, http.MethodPost, apptURL+"/finalize", practTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("finalize: status %d, body %s", resp.StatusCode, raw)
	}

	// Canceling a finalized appointment is rejected.
	resp, raw = doJSON(t, http.MethodPost, apptURL+"/cancel", patientTok, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("cancel finalized: status %d, body %s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, http.MethodPost, apptURL+"/rating", patientTok, map[string]any{"score": 5, "comment": "otimo"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rate: status %d, body %s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, http.MethodPost, apptURL+"/rating", patientTok, map[string]any{"score": 1})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second rating: status %d, body %s", resp.StatusCode, raw)
	}

	// Rated practitioner shows up under a min_rating search.
	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/practitioners?min_rating=4", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: status %d, body %s", resp.StatusCode, raw)
	}
	var listings []practitionerListingResponse
	if err := json.Unmarshal(raw, &listings); err != nil {
		t.Fatalf("unmarshal listings: %v", err)
	}
	if len(listings) != 1 || listings[0].AverageRating != 5 {
		t.Fatalf("listings = %+v", listings)
	}

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/stats", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: status %d, body %s", resp.StatusCode, raw)
	}
	var overview stats.Overview
	if err := json.Unmarshal(raw, &overview); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if overview.Patients != 1 || overview.Practitioners != 1 || overview.AverageRating != 5 {
		t.Fatalf("overview = %+v", overview)
	}
}

func TestAuthGuards(t *testing.T) {
	ts, _ := newTestServer(t)
	patientTok, practTok, practID := registerAndLogin(t, ts.URL)

	// No token.
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/appointments", "", map[string]any{
		"practitioner_id": practID,
		"start_time":      "2026-01-01T10:00:00Z",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", resp.StatusCode)
	}

	// Garbage token.
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/appointments", "not-a-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", resp.StatusCode)
	}

	// A practitioner may not book for themselves.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/appointments", practTok, map[string]any{
		"practitioner_id": practID,
		"start_time":      "2026-01-01T10:00:00Z",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong kind booking: status %d", resp.StatusCode)
	}

	// A patient may not edit schedules.
	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/practitioners/me/schedule", patientTok, map[string]any{
		"entries": []map[string]any{},
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong kind schedule: status %d", resp.StatusCode)
	}
}

func TestLogin_WrongPasswordRejected(t *testing.T) {
	ts, _ := newTestServer(t)
	registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]any{
		"email":    "ana@example.com",
		"password": "wrong-pass",
		"kind":     "paciente",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", resp.StatusCode)
	}
}
