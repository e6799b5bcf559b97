package services

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rotisk95/Thalionyx/internal/events"
	"github.com/rotisk95/Thalionyx/internal/model"
	"github.com/rotisk95/Thalionyx/internal/store"
	"github.com/rotisk95/Thalionyx/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Initialize(context.Background()))
	return st
}

func TestCreateFromCapture_Defaults(t *testing.T) {
	svc := NewFragmentService(newTestStore(t), nil, zerolog.Nop())
	ctx := context.Background()

	frag, err := svc.CreateFromCapture(ctx, []byte("clip-bytes"), 42000)
	require.NoError(t, err)

	require.NotEmpty(t, frag.FragmentID)
	require.False(t, frag.CreationTime.IsZero())
	require.Equal(t, int64(42000), frag.DurationMs)
	require.Equal(t, []byte("clip-bytes"), frag.Payload)
	require.Empty(t, frag.Tags)
	require.Empty(t, frag.Ratings)
	require.Empty(t, frag.Variations)
	require.Empty(t, frag.Responses)
	require.Equal(t, model.DefaultMetadata(), frag.Metadata)
}

func TestCreateFromCapture_Validation(t *testing.T) {
	svc := NewFragmentService(newTestStore(t), nil, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.CreateFromCapture(ctx, nil, 42000)
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.CreateFromCapture(ctx, []byte("clip"), 0)
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.CreateFromCapture(ctx, []byte("clip"), -5)
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestAddTag_AppendOnly(t *testing.T) {
	svc := NewFragmentService(newTestStore(t), nil, zerolog.Nop())
	ctx := context.Background()

	frag, err := svc.CreateFromCapture(ctx, []byte("clip"), 1000)
	require.NoError(t, err)

	first, err := svc.AddTag(ctx, frag.FragmentID, model.EmotionTag{
		Emotion: model.EmotionCalm, Intensity: 6, Confidence: 0.8,
	})
	require.NoError(t, err)
	require.Len(t, first.Tags, 1)
	require.False(t, first.Tags[0].Timestamp.IsZero(), "service fills the tag timestamp")

	second, err := svc.AddTag(ctx, frag.FragmentID, model.EmotionTag{
		Emotion: model.EmotionAnxious, Intensity: 4, Confidence: 0.6,
	})
	require.NoError(t, err)
	require.Len(t, second.Tags, 2)
	require.Equal(t, model.EmotionCalm, second.Tags[0].Emotion)
	require.Equal(t, model.EmotionAnxious, second.Tags[1].Emotion)
}

func TestAddTag_Rejections(t *testing.T) {
	svc := NewFragmentService(newTestStore(t), nil, zerolog.Nop())
	ctx := context.Background()

	frag, err := svc.CreateFromCapture(ctx, []byte("clip"), 1000)
	require.NoError(t, err)

	cases := []model.EmotionTag{
		{Emotion: "euphoric-unknown", Intensity: 5, Confidence: 0.5},
		{Emotion: model.EmotionCalm, Intensity: 0, Confidence: 0.5},
		{Emotion: model.EmotionCalm, Intensity: 11, Confidence: 0.5},
		{Emotion: model.EmotionCalm, Intensity: 5, Confidence: 1.2},
		{Emotion: model.EmotionCalm, Intensity: 5, Confidence: -0.1},
	}
	for _, tag := range cases {
		_, err := svc.AddTag(ctx, frag.FragmentID, tag)
		require.ErrorIs(t, err, model.ErrValidation)
	}

	got, err := svc.GetFragment(ctx, frag.FragmentID)
	require.NoError(t, err)
	require.Empty(t, got.Tags, "rejected tags must not be persisted")
}

func TestAddRating_Bounds(t *testing.T) {
	svc := NewFragmentService(newTestStore(t), nil, zerolog.Nop())
	ctx := context.Background()

	frag, err := svc.CreateFromCapture(ctx, []byte("clip"), 1000)
	require.NoError(t, err)

	_, err = svc.AddRating(ctx, frag.FragmentID, true, 0, nil)
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.AddRating(ctx, frag.FragmentID, true, 6, nil)
	require.ErrorIs(t, err, model.ErrValidation)

	note := "after work"
	got, err := svc.AddRating(ctx, frag.FragmentID, true, 5, &note)
	require.NoError(t, err)
	require.Len(t, got.Ratings, 1)
	require.Equal(t, frag.FragmentID, got.Ratings[0].FragmentID)
	require.NotEmpty(t, got.Ratings[0].RatingID)
	require.Equal(t, &note, got.Ratings[0].Context)
}

func TestAddVariationAndResponse(t *testing.T) {
	svc := NewFragmentService(newTestStore(t), nil, zerolog.Nop())
	ctx := context.Background()

	frag, err := svc.CreateFromCapture(ctx, []byte("clip"), 1000)
	require.NoError(t, err)

	_, err = svc.AddVariation(ctx, frag.FragmentID, "", []byte("v"))
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.AddVariation(ctx, frag.FragmentID, "echo", nil)
	require.ErrorIs(t, err, model.ErrValidation)

	got, err := svc.AddVariation(ctx, frag.FragmentID, "echo", []byte("variation-bytes"))
	require.NoError(t, err)
	require.Len(t, got.Variations, 1)
	require.Equal(t, "echo", got.Variations[0].Effect)

	_, err = svc.AddResponse(ctx, frag.FragmentID, "monologue", nil, []byte("r"))
	require.ErrorIs(t, err, model.ErrValidation)

	got, err = svc.AddResponse(ctx, frag.FragmentID, model.ResponseAnswer, nil, []byte("response-bytes"))
	require.NoError(t, err)
	require.Len(t, got.Responses, 1)

	// Nested payloads survive the save/load cycle.
	reloaded, err := svc.GetFragment(ctx, frag.FragmentID)
	require.NoError(t, err)
	require.Equal(t, []byte("variation-bytes"), reloaded.Variations[0].Payload)
	require.Equal(t, []byte("response-bytes"), reloaded.Responses[0].Payload)
}

func TestUpdateMetadata(t *testing.T) {
	svc := NewFragmentService(newTestStore(t), nil, zerolog.Nop())
	ctx := context.Background()

	frag, err := svc.CreateFromCapture(ctx, []byte("clip"), 1000)
	require.NoError(t, err)

	_, err = svc.UpdateMetadata(ctx, frag.FragmentID, model.FragmentMetadata{Mood: "", Energy: 5, Clarity: 5})
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.UpdateMetadata(ctx, frag.FragmentID, model.FragmentMetadata{Mood: "calm", Energy: 11, Clarity: 5})
	require.ErrorIs(t, err, model.ErrValidation)

	got, err := svc.UpdateMetadata(ctx, frag.FragmentID, model.FragmentMetadata{Mood: "energized", Energy: 8, Clarity: 9})
	require.NoError(t, err)
	require.Equal(t, "energized", got.Metadata.Mood)
	require.NotNil(t, got.Metadata.Keywords)
}

func TestListFragments_SortedByCreation(t *testing.T) {
	svc := NewFragmentService(newTestStore(t), nil, zerolog.Nop())
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		frag, err := svc.CreateFromCapture(ctx, []byte("clip"), 1000)
		require.NoError(t, err)
		ids = append(ids, frag.FragmentID)
		time.Sleep(2 * time.Millisecond)
	}

	frags, err := svc.ListFragments(ctx)
	require.NoError(t, err)
	require.Len(t, frags, 3)
	for i := 1; i < len(frags); i++ {
		require.False(t, frags[i].CreationTime.Before(frags[i-1].CreationTime))
	}
}

func TestSelection_Lifecycle(t *testing.T) {
	svc := NewFragmentService(newTestStore(t), nil, zerolog.Nop())
	ctx := context.Background()

	none, err := svc.SelectedFragment(ctx)
	require.NoError(t, err)
	require.Nil(t, none)

	frag, err := svc.CreateFromCapture(ctx, []byte("clip"), 1000)
	require.NoError(t, err)

	_, err = svc.SelectFragment(ctx, "unknown")
	require.ErrorIs(t, err, model.ErrNotFound)

	sel, err := svc.SelectFragment(ctx, frag.FragmentID)
	require.NoError(t, err)
	require.Equal(t, frag.FragmentID, sel.FragmentID)

	cur, err := svc.SelectedFragment(ctx)
	require.NoError(t, err)
	require.Equal(t, frag.FragmentID, cur.FragmentID)

	// Deleting the selected fragment clears the selection.
	require.NoError(t, svc.DeleteFragment(ctx, frag.FragmentID))
	cur, err = svc.SelectedFragment(ctx)
	require.NoError(t, err)
	require.Nil(t, cur)
}

func TestCreate_FullBusDropsEventWithWarning(t *testing.T) {
	var logs bytes.Buffer
	bus := events.NewBus(0)
	svc := NewFragmentService(newTestStore(t), bus, zerolog.New(&logs))
	ctx := context.Background()

	// No subscriber and no buffer, so the publish is dropped. The save
	// itself must still succeed.
	frag, err := svc.CreateFromCapture(ctx, []byte("clip"), 1000)
	require.NoError(t, err)

	got, err := svc.GetFragment(ctx, frag.FragmentID)
	require.NoError(t, err)
	require.Equal(t, frag.FragmentID, got.FragmentID)
	require.Contains(t, logs.String(), "event bus full")
}

func TestCreate_PublishesSavedEvent(t *testing.T) {
	bus := events.NewBus(4)
	svc := NewFragmentService(newTestStore(t), bus, zerolog.Nop())
	ctx := context.Background()

	frag, err := svc.CreateFromCapture(ctx, []byte("clip"), 1000)
	require.NoError(t, err)

	select {
	case ev := <-bus.Subscribe():
		require.Equal(t, events.EventFragmentSaved, ev.Kind)
		require.Equal(t, frag.FragmentID, ev.FragmentID)
	case <-time.After(time.Second):
		t.Fatal("expected a saved event")
	}
}
