package coordination

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestRegisterFirstSubmissionNoSignal(t *testing.T) {
	w := NewWindow(DefaultWindow)

	signal := w.Register("free gift card winner", "user-a", base)

	assert.Nil(t, signal)
	assert.Equal(t, 1, w.Size())
}

func TestRegisterMatchAcrossSubmitters(t *testing.T) {
	w := NewWindow(DefaultWindow)

	w.Register("free gift card winner", "user-a", base)
	signal := w.Register("congratulations you are a winner of a free gift", "user-b", base.Add(10*time.Second))

	require.NotNil(t, signal)
	assert.GreaterOrEqual(t, signal.MatchCount, 2)
	assert.Equal(t, "congratulations you are a winner of a free gift", signal.TriggeringText)
	require.Len(t, signal.Examples, 1)
	assert.Equal(t, "free gift card winner", signal.Examples[0])
}

func TestRegisterExpiredRecordDoesNotMatch(t *testing.T) {
	w := NewWindow(DefaultWindow)

	w.Register("free gift card winner", "user-a", base)
	signal := w.Register("congratulations you are a winner of a free gift", "user-b", base.Add(61*time.Second))

	assert.Nil(t, signal)
	// the expired record was purged, the new one retained
	assert.Equal(t, 1, w.Size())
}

func TestRegisterSelfMatchExcluded(t *testing.T) {
	w := NewWindow(DefaultWindow)

	w.Register("free gift card winner", "user-a", base)
	signal := w.Register("free gift card winner again", "user-a", base.Add(5*time.Second))

	assert.Nil(t, signal)
	assert.Equal(t, 2, w.Size())
}

func TestRegisterSingleKeywordOverlapIsNotAMatch(t *testing.T) {
	w := NewWindow(DefaultWindow)

	w.Register("winner announced today", "user-a", base)
	signal := w.Register("winner takes breakfast", "user-b", base.Add(2*time.Second))

	assert.Nil(t, signal)
}

func TestRegisterCountsAllMatchingSubmitters(t *testing.T) {
	w := NewWindow(DefaultWindow)

	w.Register("claim your free prize now", "user-a", base)
	w.Register("free prize if you claim today", "user-b", base.Add(3*time.Second))
	signal := w.Register("hurry and claim the free prize", "user-c", base.Add(6*time.Second))

	require.NotNil(t, signal)
	assert.Equal(t, 3, signal.MatchCount)
	assert.Len(t, signal.Examples, 2)
}

func TestRegisterAlwaysAppends(t *testing.T) {
	w := NewWindow(DefaultWindow)

	for i := 0; i < 5; i++ {
		w.Register(fmt.Sprintf("completely unrelated message %d", i), fmt.Sprintf("user-%d", i), base.Add(time.Duration(i)*time.Second))
	}

	assert.Equal(t, 5, w.Size())
}

func TestNewWindowDefaultsNonPositiveDuration(t *testing.T) {
	w := NewWindow(0)

	w.Register("free gift card winner", "user-a", base)
	signal := w.Register("winner of a free gift", "user-b", base.Add(59*time.Second))

	require.NotNil(t, signal)
}

func TestRegisterConcurrentSubmissions(t *testing.T) {
	w := NewWindow(DefaultWindow)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w.Register("free gift card winner", fmt.Sprintf("user-%d", i), base)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, w.Size())

	// every earlier submitter's phrase is now visible to a new one
	signal := w.Register("winner of a free gift card", "user-final", base.Add(time.Second))
	require.NotNil(t, signal)
	assert.Equal(t, 51, signal.MatchCount)
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases", "Free GIFT Card", []string{"free", "gift", "card"}},
		{"drops short tokens", "a to is of winner", []string{"winner"}},
		{"strips punctuation", "win!!! big-money, now...", []string{"win", "bigmoney", "now"}},
		{"empty", "", nil},
		{"only short tokens", "a b cd", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.text)
			assert.Len(t, got, len(tt.want))
			for _, k := range tt.want {
				assert.Contains(t, got, k)
			}
		})
	}
}
