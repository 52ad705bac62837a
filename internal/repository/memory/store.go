// Package memory is an in-process slot and booking store.  It backs
// DB_DRIVER=memory and the service and handler tests, and enforces the
// same at-most-one-booking-per-slot rule as the SQL stores.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/appointment-booking/internal/model"
	"github.com/iliyamo/appointment-booking/internal/repository"
)

// Store keeps slots and bookings in maps guarded by one mutex.  The zero
// value is not usable; call New.
type Store struct {
	mu       sync.RWMutex
	slots    map[string]model.Slot
	bookings map[string]model.Booking // keyed by slot ID
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		slots:    make(map[string]model.Slot),
		bookings: make(map[string]model.Booking),
	}
}

func (s *Store) Get(_ context.Context, id string) (model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[id]
	if !ok {
		return model.Slot{}, repository.ErrSlotNotFound
	}
	return sl, nil
}

func (s *Store) ListOpen(_ context.Context, from, to time.Time) ([]model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Slot{}
	for id, sl := range s.slots {
		if _, booked := s.bookings[id]; booked || !sl.IsActive {
			continue
		}
		if inWindow(sl.StartTime, from, to) {
			out = append(out, sl)
		}
	}
	sortSlots(out)
	return out, nil
}

func (s *Store) ListUpcoming(_ context.Context, from, to time.Time) ([]model.SlotWithBooking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ss []model.Slot
	for _, sl := range s.slots {
		if inWindow(sl.StartTime, from, to) {
			ss = append(ss, sl)
		}
	}
	sortSlots(ss)
	out := make([]model.SlotWithBooking, 0, len(ss))
	for _, sl := range ss {
		sw := model.SlotWithBooking{Slot: sl}
		if b, ok := s.bookings[sl.ID]; ok {
			b := b
			sw.Booking = &b
		}
		out = append(out, sw)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, sl model.Slot) error {
	return s.CreateBulk(ctx, []model.Slot{sl})
}

// CreateBulk stores every slot or none.
func (s *Store) CreateBulk(_ context.Context, slots []model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range slots {
		if _, exists := s.slots[sl.ID]; exists {
			return repository.ErrDuplicateSlot
		}
	}
	for _, sl := range slots {
		s.slots[sl.ID] = sl
	}
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[id]; !ok {
		return repository.ErrSlotNotFound
	}
	if _, booked := s.bookings[id]; booked {
		return repository.ErrSlotBooked
	}
	delete(s.slots, id)
	return nil
}

func (s *Store) MarkBooked(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[id]
	if !ok {
		return nil
	}
	sl.IsActive = false
	sl.Booked = true
	s.slots[id] = sl
	return nil
}

// InsertUnique claims b.SlotID.  The check and the write happen under
// the same lock, so concurrent callers see exactly one success.
func (s *Store) InsertUnique(_ context.Context, b model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[b.SlotID]; !ok {
		return repository.ErrSlotNotFound
	}
	if _, taken := s.bookings[b.SlotID]; taken {
		return repository.ErrDuplicateBooking
	}
	s.bookings[b.SlotID] = b
	return nil
}

func (s *Store) ListRecent(_ context.Context, from, to time.Time, limit int) ([]model.BookingWithSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.BookingWithSlot{}
	for slotID, b := range s.bookings {
		sl := s.slots[slotID]
		if !inWindow(sl.StartTime, from, to) {
			continue
		}
		out = append(out, model.BookingWithSlot{
			Booking: b,
			Slot:    model.SlotTimes{ID: sl.ID, StartTime: sl.StartTime, EndTime: sl.EndTime},
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func sortSlots(ss []model.Slot) {
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].StartTime.Equal(ss[j].StartTime) {
			return ss[i].ID < ss[j].ID
		}
		return ss[i].StartTime.Before(ss[j].StartTime)
	})
}
