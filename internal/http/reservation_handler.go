package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/example/court-scheduler/internal/application"
	"github.com/example/court-scheduler/internal/protocol"
	"github.com/example/court-scheduler/internal/scheduler"
)

type reservationService interface {
	Reserve(ctx context.Context, username, day string, hour int) application.Outcome
	Cancel(ctx context.Context, username, day string) application.Outcome
	DayView(ctx context.Context, day string) ([]scheduler.Slot, application.Outcome)
	WeekView(ctx context.Context) []scheduler.DaySchedule
	UserReservations(ctx context.Context, username string) []scheduler.Reservation
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

// Week returns every day's slots.
func (h *ReservationHandler) Week(ctx context.Context, req *protocol.Request) *protocol.Response {
	if h == nil || h.service == nil {
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}
	week := h.service.WeekView(ctx)
	return h.responder.write(ctx, protocol.StatusOK, "Weekly schedule retrieved", weekResponse{Schedule: toWeekDTO(week)})
}

// Day returns the slots for ?day=.
func (h *ReservationHandler) Day(ctx context.Context, req *protocol.Request) *protocol.Response {
	if h == nil || h.service == nil {
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}

	day := strings.ToUpper(req.QueryValue("day"))
	if day == "" {
		return h.responder.writeError(ctx, protocol.StatusBadRequest, msgMissingDayQuery)
	}

	slots, outcome := h.service.DayView(ctx, day)
	if !outcome.Success() {
		return h.responder.writeOutcome(ctx, outcome, nil)
	}
	return h.responder.writeOutcome(ctx, outcome, dayResponse{Day: day, Schedule: toSlotDTOs(slots)})
}

// List returns the caller's reservations.
func (h *ReservationHandler) List(ctx context.Context, req *protocol.Request) *protocol.Response {
	if h == nil || h.service == nil {
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}

	principal, _ := PrincipalFromContext(ctx)
	reservations := h.service.UserReservations(ctx, principal.Username)
	return h.responder.write(ctx, protocol.StatusOK, fmt.Sprintf("Found %d reservation(s)", len(reservations)), reservationsResponse{
		Reservations: toReservationDTOs(reservations),
	})
}

// Create books {"day","hour"} for the caller.
func (h *ReservationHandler) Create(ctx context.Context, req *protocol.Request) *protocol.Response {
	if h == nil || h.service == nil {
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}

	fields, ok := decodeObject(req.Body)
	if !ok {
		return h.responder.writeError(ctx, protocol.StatusBadRequest, msgMissingDayHour)
	}
	rawDay, hasDay := fields["day"]
	rawHour, hasHour := fields["hour"]
	if !hasDay || !hasHour {
		return h.responder.writeError(ctx, protocol.StatusBadRequest, msgMissingDayHour)
	}

	hour, ok := parseHour(rawHour)
	if !ok {
		return h.responder.writeError(ctx, protocol.StatusBadRequest, msgBadHourFormat)
	}

	principal, _ := PrincipalFromContext(ctx)
	day := strings.ToUpper(jsonText(rawDay))
	outcome := h.service.Reserve(ctx, principal.Username, day, hour)
	h.log(ctx, "Create", "day", day, "hour", hour).DebugContext(ctx, "reservation handled", "outcome", outcome.Kind.String())
	return h.responder.writeOutcome(ctx, outcome, nil)
}

// Cancel releases the caller's booking on the day given by ?day= or the path
// segment after /reservations/.
func (h *ReservationHandler) Cancel(ctx context.Context, req *protocol.Request) *protocol.Response {
	if h == nil || h.service == nil {
		return protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}

	day := req.QueryValue("day")
	if day == "" {
		if parts := strings.Split(req.Path, "/"); len(parts) >= 3 {
			day = parts[2]
		}
	}
	day = strings.ToUpper(day)
	if day == "" {
		return h.responder.writeError(ctx, protocol.StatusBadRequest, msgMissingDayParam)
	}

	principal, _ := PrincipalFromContext(ctx)
	outcome := h.service.Cancel(ctx, principal.Username, day)
	return h.responder.writeOutcome(ctx, outcome, nil)
}

// parseHour accepts a JSON integer (including integral floats like 10.0) or a
// string holding one. Fractions, booleans, null and anything else are rejected.
func parseHour(raw json.RawMessage) (int, bool) {
	var value any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return 0, false
	}

	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return clampInt(n)
		}
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return 0, false
		}
		return clampInt(int64(f))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return clampInt(n)
	default:
		return 0, false
	}
}

func clampInt(n int64) (int, bool) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// jsonText returns a JSON string's value, or the raw literal for other types.
func jsonText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

type slotDTO struct {
	Hour       int     `json:"hour"`
	TimeSlot   string  `json:"time_slot"`
	Available  bool    `json:"available"`
	ReservedBy *string `json:"reserved_by"`
}

func toSlotDTOs(slots []scheduler.Slot) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		dto := slotDTO{Hour: slot.Hour, TimeSlot: slot.TimeSlot, Available: slot.Available}
		if slot.ReservedBy != "" {
			owner := slot.ReservedBy
			dto.ReservedBy = &owner
		}
		out = append(out, dto)
	}
	return out
}

type dayDTO struct {
	Day   scheduler.Day
	Slots []slotDTO
}

// weekDTO is a JSON object keyed by day that keeps week order.
type weekDTO []dayDTO

func (w weekDTO) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, day := range w {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(day.Day))
		if err != nil {
			return nil, err
		}
		slots, err := json.Marshal(day.Slots)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(slots)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func toWeekDTO(week []scheduler.DaySchedule) weekDTO {
	out := make(weekDTO, 0, len(week))
	for _, day := range week {
		out = append(out, dayDTO{Day: day.Day, Slots: toSlotDTOs(day.Slots)})
	}
	return out
}

type weekResponse struct {
	Schedule weekDTO `json:"schedule"`
}

type dayResponse struct {
	Day      string    `json:"day"`
	Schedule []slotDTO `json:"schedule"`
}

type reservationDTO struct {
	Username string `json:"username"`
	Day      string `json:"day"`
	Hour     int    `json:"hour"`
	TimeSlot string `json:"time_slot"`
}

func toReservationDTOs(reservations []scheduler.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, reservationDTO{
			Username: r.Username,
			Day:      string(r.Day),
			Hour:     r.Hour,
			TimeSlot: r.TimeSlot(),
		})
	}
	return out
}

type reservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}
