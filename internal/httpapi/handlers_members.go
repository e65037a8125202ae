package httpapi

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gymgate/server/internal/gymgate/types"
)

type scheduleEntryPayload struct {
	Weekday int    `json:"weekday"` // 0 = Sunday
	Start   string `json:"start"`   // "HH:MM"
	End     string `json:"end"`
	Enabled bool   `json:"enabled"`
}

type memberView struct {
	ID                  string                 `json:"id"`
	DeviceUserCode      string                 `json:"device_user_code"`
	DisplayName         string                 `json:"display_name"`
	AccessActive        bool                   `json:"access_active"`
	FingerprintEnrolled bool                   `json:"fingerprint_enrolled"`
	PackageEndDate      *time.Time             `json:"package_end_date,omitempty"`
	PendingAmount       float64                `json:"pending_amount"`
	LastAccessAt        *time.Time             `json:"last_access_at,omitempty"`
	AccessAttempts      int                    `json:"access_attempts"`
	Schedule            []scheduleEntryPayload `json:"schedule"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

func viewOf(m *types.Member) memberView {
	v := memberView{
		ID:                  m.ID,
		DeviceUserCode:      m.DeviceUserCode,
		DisplayName:         m.DisplayName,
		AccessActive:        m.AccessActive,
		FingerprintEnrolled: m.FingerprintEnrolled,
		PackageEndDate:      m.PackageEndDate,
		PendingAmount:       m.PendingAmount,
		LastAccessAt:        m.LastAccessAt,
		AccessAttempts:      m.AccessAttempts,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	for _, e := range m.Schedule {
		v.Schedule = append(v.Schedule, scheduleEntryPayload{
			Weekday: int(e.Weekday),
			Start:   types.FormatClock(e.StartMinute),
			End:     types.FormatClock(e.EndMinute),
			Enabled: e.Enabled,
		})
	}
	return v
}

func scheduleFromPayload(entries []scheduleEntryPayload) (types.Schedule, error) {
	sched := types.DefaultSchedule()
	if len(entries) == 0 {
		return sched, nil
	}
	for i := range sched {
		sched[i].Enabled = false
	}
	for _, e := range entries {
		if e.Weekday < 0 || e.Weekday > 6 {
			return sched, fmt.Errorf("weekday %d out of range", e.Weekday)
		}
		start, err := types.ParseClock(e.Start)
		if err != nil {
			return sched, err
		}
		end, err := types.ParseClock(e.End)
		if err != nil {
			return sched, err
		}
		if end < start {
			return sched, fmt.Errorf("weekday %d: end %s before start %s", e.Weekday, e.End, e.Start)
		}
		sched[e.Weekday] = types.ScheduleEntry{
			Weekday:     time.Weekday(e.Weekday),
			StartMinute: start,
			EndMinute:   end,
			Enabled:     e.Enabled,
		}
	}
	return sched, nil
}

type createMemberRequest struct {
	DisplayName    string                 `json:"display_name"`
	DeviceUserCode string                 `json:"device_user_code"`
	PackageEndDate string                 `json:"package_end_date"`
	PendingAmount  float64                `json:"pending_amount"`
	Schedule       []scheduleEntryPayload `json:"schedule"`
}

type memberSyncView struct {
	Member memberView       `json:"member"`
	Sync   types.SyncResult `json:"sync"`
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "missing_display_name", "display_name is required")
		return
	}

	sched, err := scheduleFromPayload(req.Schedule)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_schedule", err.Error())
		return
	}

	var packageEnd *time.Time
	if req.PackageEndDate != "" {
		t, err := parseDate(req.PackageEndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_package_end_date", err.Error())
			return
		}
		packageEnd = &t
	}

	code := req.DeviceUserCode
	if code == "" {
		code, err = s.freshDeviceCode(r)
		if err != nil {
			s.logger.Error().Err(err).Msg("device code allocation failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "could not allocate device user code")
			return
		}
	} else if existing, err := s.members.GetByDeviceCode(r.Context(), code); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "member lookup failed")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "code_taken", "device_user_code is already assigned")
		return
	}

	now := time.Now().UTC()
	m := &types.Member{
		ID:             uuid.NewString(),
		DeviceUserCode: code,
		DisplayName:    req.DisplayName,
		AccessActive:   true,
		PackageEndDate: packageEnd,
		PendingAmount:  req.PendingAmount,
		Schedule:       sched,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.members.Create(r.Context(), m); err != nil {
		s.logger.Error().Err(err).Msg("member create failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "member create failed")
		return
	}

	res := s.sync.SyncCreate(r.Context(), m)
	writeJSON(w, http.StatusCreated, memberSyncView{Member: viewOf(m), Sync: res})
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadMember(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(m))
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadMember(w, r)
	if !ok {
		return
	}

	// Push the removal first so the device client still has the record's
	// identity; the sync outcome is advisory either way.
	res := s.sync.SyncDelete(r.Context(), m)

	if err := s.members.Delete(r.Context(), m.ID); err != nil {
		s.logger.Error().Err(err).Str("member_id", m.ID).Msg("member delete failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "member delete failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSyncMember(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadMember(w, r)
	if !ok {
		return
	}
	res := s.sync.SyncCreate(r.Context(), m)
	writeJSON(w, http.StatusOK, res)
}

// handleRemoveFromDevice deletes the user from the terminal while keeping
// the member record.  Access stays denied through the active flag.
func (s *Server) handleRemoveFromDevice(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadMember(w, r)
	if !ok {
		return
	}

	res := s.sync.SyncDelete(r.Context(), m)
	if res.Succeeded() {
		if err := s.members.SetAccessActive(r.Context(), m.ID, false); err != nil {
			s.logger.Error().Err(err).Str("member_id", m.ID).Msg("deactivate after device removal failed")
		}
	}
	writeJSON(w, http.StatusOK, res)
}

type replaceScheduleRequest struct {
	Schedule []scheduleEntryPayload `json:"schedule"`
}

func (s *Server) handleReplaceSchedule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadMember(w, r)
	if !ok {
		return
	}

	var req replaceScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if len(req.Schedule) == 0 {
		writeError(w, http.StatusBadRequest, "bad_schedule", "schedule entries are required")
		return
	}
	sched, err := scheduleFromPayload(req.Schedule)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_schedule", err.Error())
		return
	}

	if err := s.members.ReplaceSchedule(r.Context(), m.ID, sched); err != nil {
		s.logger.Error().Err(err).Str("member_id", m.ID).Msg("schedule replace failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "schedule replace failed")
		return
	}

	synced := s.sync.SyncScheduleUpdate(r.Context(), m, sched)
	writeJSON(w, http.StatusOK, map[string]any{"schedule_synced": synced})
}

type enrollRequest struct {
	FingerIndex int `json:"finger_index"`
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadMember(w, r)
	if !ok {
		return
	}

	var req enrollRequest
	if r.Body != nil {
		// Body is optional; finger 0 is the default slot.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	started, msg := s.sync.EnrollFingerprint(r.Context(), m, req.FingerIndex)
	if started {
		if err := s.members.SetFingerprintEnrolled(r.Context(), m.ID, true); err != nil {
			s.logger.Error().Err(err).Str("member_id", m.ID).Msg("enrolled flag update failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"started": started, "message": msg})
}

func (s *Server) loadMember(w http.ResponseWriter, r *http.Request) (*types.Member, bool) {
	id := chi.URLParam(r, "id")
	m, err := s.members.GetByID(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Str("member_id", id).Msg("member lookup failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "member lookup failed")
		return nil, false
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "not_found", "no such member")
		return nil, false
	}
	return m, true
}

// freshDeviceCode allocates an unused numeric code for the terminal's user
// namespace.  Collisions are rare at gym scale but checked anyway.
func (s *Server) freshDeviceCode(r *http.Request) (string, error) {
	for range 10 {
		code := fmt.Sprintf("%08d", 10000000+rand.IntN(90000000))
		existing, err := s.members.GetByDeviceCode(r.Context(), code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free device user code after 10 draws")
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q, want RFC3339 or YYYY-MM-DD", v)
}
