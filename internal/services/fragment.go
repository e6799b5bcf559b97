package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rotisk95/Thalionyx/internal/events"
	"github.com/rotisk95/Thalionyx/internal/model"
	"github.com/rotisk95/Thalionyx/internal/store"
)

// FragmentService orchestrates fragment use cases. Every mutation follows
// the same flow: load, copy-with-append, save the whole record. Writes for
// a given fragment id are serialized through a keyed lock so a save fully
// completes before a later get/delete observes it.
type FragmentService struct {
	store store.Store
	bus   *events.Bus
	log   zerolog.Logger
	now   func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	selMu      sync.RWMutex
	selectedID string
}

func NewFragmentService(s store.Store, bus *events.Bus, log zerolog.Logger) *FragmentService {
	return &FragmentService{
		store: s,
		bus:   bus,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		locks: map[string]*sync.Mutex{},
	}
}

// lock serializes writes per fragment id; returns the unlock func.
func (s *FragmentService) lock(fragmentID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[fragmentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[fragmentID] = l
	}
	s.locksMu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *FragmentService) publish(kind events.EventKind, fragmentID string) {
	if s.bus == nil {
		return
	}
	if !s.bus.Publish(events.Event{Kind: kind, FragmentID: fragmentID}) {
		s.log.Warn().
			Str("kind", string(kind)).
			Str("fragment_id", fragmentID).
			Msg("event bus full, event dropped")
	}
}

// CreateFromCapture accepts the capture collaborator's handoff. The core
// assigns id, creation time and default metadata.
func (s *FragmentService) CreateFromCapture(ctx context.Context, payload []byte, durationMs int64) (*model.Fragment, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: payload is required", model.ErrValidation)
	}
	if durationMs <= 0 {
		return nil, fmt.Errorf("%w: durationMs must be positive", model.ErrValidation)
	}
	frag := &model.Fragment{
		FragmentID:   uuid.New().String(),
		CreationTime: s.now(),
		DurationMs:   durationMs,
		Payload:      payload,
		Tags:         []model.EmotionTag{},
		Ratings:      []model.FragmentRating{},
		Variations:   []model.FragmentVariation{},
		Responses:    []model.ResponseFragment{},
		Metadata:     model.DefaultMetadata(),
	}
	unlock := s.lock(frag.FragmentID)
	defer unlock()
	saved, err := s.store.Fragments().Save(ctx, frag)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventFragmentSaved, saved.FragmentID)
	return saved, nil
}

func (s *FragmentService) GetFragment(ctx context.Context, fragmentID string) (*model.Fragment, error) {
	return s.store.Fragments().Get(ctx, fragmentID)
}

// ListFragments returns every fragment ordered by creation time. The store
// leaves order unspecified; callers that care about order go through here.
func (s *FragmentService) ListFragments(ctx context.Context) ([]*model.Fragment, error) {
	frags, err := s.store.Fragments().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].CreationTime.Before(frags[j].CreationTime)
	})
	return frags, nil
}

// DeleteFragment removes the fragment and every payload it owns. Clears the
// viewing selection when it pointed at the deleted fragment.
func (s *FragmentService) DeleteFragment(ctx context.Context, fragmentID string) error {
	unlock := s.lock(fragmentID)
	defer unlock()
	if err := s.store.Fragments().Delete(ctx, fragmentID); err != nil {
		return err
	}
	s.selMu.Lock()
	if s.selectedID == fragmentID {
		s.selectedID = ""
	}
	s.selMu.Unlock()
	s.publish(events.EventFragmentDeleted, fragmentID)
	return nil
}

// mutate runs the load/copy/append/save flow under the fragment's lock.
func (s *FragmentService) mutate(ctx context.Context, fragmentID string, apply func(*model.Fragment)) (*model.Fragment, error) {
	unlock := s.lock(fragmentID)
	defer unlock()

	current, err := s.store.Fragments().Get(ctx, fragmentID)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	apply(next)
	saved, err := s.store.Fragments().Save(ctx, next)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventFragmentSaved, fragmentID)
	return saved, nil
}

// AddTag appends an emotion tag. Tags are append-only while the fragment is
// active.
func (s *FragmentService) AddTag(ctx context.Context, fragmentID string, tag model.EmotionTag) (*model.Fragment, error) {
	if err := model.ValidateTag(tag); err != nil {
		return nil, err
	}
	if tag.Timestamp.IsZero() {
		tag.Timestamp = s.now()
	}
	return s.mutate(ctx, fragmentID, func(f *model.Fragment) {
		f.Tags = append(f.Tags, tag)
	})
}

// AddRating appends a viewer rating.
func (s *FragmentService) AddRating(ctx context.Context, fragmentID string, helpful bool, resonance int, context *string) (*model.Fragment, error) {
	rating := model.FragmentRating{
		RatingID:   uuid.New().String(),
		FragmentID: fragmentID,
		Helpful:    helpful,
		Resonance:  resonance,
		Timestamp:  s.now(),
		Context:    context,
	}
	if err := model.ValidateRating(rating); err != nil {
		return nil, err
	}
	return s.mutate(ctx, fragmentID, func(f *model.Fragment) {
		f.Ratings = append(f.Ratings, rating)
	})
}

// AddVariation wraps a payload derived by the effect-rendering collaborator
// and appends it to the fragment.
func (s *FragmentService) AddVariation(ctx context.Context, fragmentID, effect string, payload []byte) (*model.Fragment, error) {
	if effect == "" {
		return nil, fmt.Errorf("%w: effect is required", model.ErrValidation)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: payload is required", model.ErrValidation)
	}
	variation := model.FragmentVariation{
		VariationID:  uuid.New().String(),
		Effect:       effect,
		Payload:      payload,
		CreationTime: s.now(),
	}
	return s.mutate(ctx, fragmentID, func(f *model.Fragment) {
		f.Variations = append(f.Variations, variation)
	})
}

// AddResponse wraps a payload recorded in response to the fragment.
func (s *FragmentService) AddResponse(ctx context.Context, fragmentID string, kind model.ResponseKind, notes *string, payload []byte) (*model.Fragment, error) {
	if err := model.ValidateResponseKind(kind); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: payload is required", model.ErrValidation)
	}
	response := model.ResponseFragment{
		ResponseID:   uuid.New().String(),
		Kind:         kind,
		Notes:        notes,
		Payload:      payload,
		CreationTime: s.now(),
	}
	return s.mutate(ctx, fragmentID, func(f *model.Fragment) {
		f.Responses = append(f.Responses, response)
	})
}

// UpdateMetadata replaces the whole-fragment metadata.
func (s *FragmentService) UpdateMetadata(ctx context.Context, fragmentID string, meta model.FragmentMetadata) (*model.Fragment, error) {
	if err := model.ValidateMetadata(meta); err != nil {
		return nil, err
	}
	if meta.Keywords == nil {
		meta.Keywords = []string{}
	}
	return s.mutate(ctx, fragmentID, func(f *model.Fragment) {
		f.Metadata = meta
	})
}

// SelectFragment marks a fragment as the one being viewed.
func (s *FragmentService) SelectFragment(ctx context.Context, fragmentID string) (*model.Fragment, error) {
	frag, err := s.store.Fragments().Get(ctx, fragmentID)
	if err != nil {
		return nil, err
	}
	s.selMu.Lock()
	s.selectedID = fragmentID
	s.selMu.Unlock()
	return frag, nil
}

// ClearSelection drops the viewing selection.
func (s *FragmentService) ClearSelection() {
	s.selMu.Lock()
	s.selectedID = ""
	s.selMu.Unlock()
}

// SelectedFragment returns the currently viewed fragment, or nil when none
// is selected.
func (s *FragmentService) SelectedFragment(ctx context.Context) (*model.Fragment, error) {
	s.selMu.RLock()
	id := s.selectedID
	s.selMu.RUnlock()
	if id == "" {
		return nil, nil
	}
	return s.store.Fragments().Get(ctx, id)
}
