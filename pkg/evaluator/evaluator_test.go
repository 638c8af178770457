package evaluator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/ccollicutt/mitilog/pkg/data"
	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/suggestion"
	"github.com/ccollicutt/mitilog/pkg/window"
)

func actionA() EvaluatedAction {
	return EvaluatedAction{
		Event:  event.Event{Type: event.KindAction, Action: 24298},
		Action: data.Action{ID: 24298, Name: "Kerachole"},
	}
}

func actionWindow(start, end int64, n int) window.Window[[]EvaluatedAction] {
	w := window.Window[[]EvaluatedAction]{Start: start, End: end, Data: []EvaluatedAction{}}
	for i := 0; i < n; i++ {
		w.Data = append(w.Data, actionA())
	}
	return w
}

func tableRows(t *testing.T, out []Output) []TargetData {
	t.Helper()
	require.Len(t, out, 1)
	table, ok := out[0].(Table)
	require.True(t, ok, "output should be a Table, got %T", out[0])
	return table.Rows
}

func TestExpectedCount_AllWindowsMet(t *testing.T) {
	ev := NewExpectedCount(ExpectedCountOptions[EvaluatedAction]{
		Expected:      1,
		SeverityTiers: suggestion.Tiers{1: suggestion.SeverityMedium},
	})
	windows := []window.Window[[]EvaluatedAction]{
		actionWindow(0, 10, 1),
		actionWindow(20, 30, 2),
	}

	rows := tableRows(t, ev.Output(windows))
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].Actual)
	assert.Equal(t, int64(1), *rows[0].Expected)
	assert.Equal(t, OutcomePositive, rows[0].Outcome())

	assert.Equal(t, int64(2), rows[1].Actual)
	assert.Equal(t, int64(1), *rows[1].Expected)
	assert.Equal(t, OutcomePositive, rows[1].Outcome())

	assert.Nil(t, ev.Suggest(windows), "no window is short")
}

func TestExpectedCount_EmptyWindowShort(t *testing.T) {
	ev := NewExpectedCount(ExpectedCountOptions[EvaluatedAction]{
		Expected:          1,
		SuggestionContent: "use it",
		SeverityTiers:     suggestion.Tiers{1: suggestion.SeverityMedium, 2: suggestion.SeverityMajor},
	})
	windows := []window.Window[[]EvaluatedAction]{actionWindow(0, 5, 0)}

	rows := tableRows(t, ev.Output(windows))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(0), rows[0].Actual)
	assert.Equal(t, int64(1), *rows[0].Expected)
	assert.Equal(t, OutcomeNegative, rows[0].Outcome())

	s := ev.Suggest(windows)
	require.NotNil(t, s)
	assert.Equal(t, float64(1), s.Value)
	assert.Equal(t, suggestion.SeverityMedium, s.Severity)
	assert.Equal(t, "use it", s.Content)
}

func TestExpectedCount_ClassificationAlwaysMatchesComparison(t *testing.T) {
	for expected := int64(0); expected <= 3; expected++ {
		for n := 0; n <= 4; n++ {
			ev := NewExpectedCount(ExpectedCountOptions[EvaluatedAction]{Expected: expected})
			rows := tableRows(t, ev.Output([]window.Window[[]EvaluatedAction]{actionWindow(0, 1, n)}))

			want := OutcomeNegative
			if int64(n) >= expected {
				want = OutcomePositive
			}
			assert.Equal(t, want, rows[0].Outcome(), "actual=%d expected=%d", n, expected)
		}
	}
}

func TestExpectedCount_SeverityEscalates(t *testing.T) {
	ev := NewExpectedCount(ExpectedCountOptions[EvaluatedAction]{
		Expected:      1,
		SeverityTiers: suggestion.Tiers{1: suggestion.SeverityMedium, 2: suggestion.SeverityMajor},
	})
	windows := []window.Window[[]EvaluatedAction]{
		actionWindow(0, 5, 0),
		actionWindow(10, 15, 0),
		actionWindow(20, 25, 1),
	}

	s := ev.Suggest(windows)
	require.NotNil(t, s)
	assert.Equal(t, float64(2), s.Value)
	assert.Equal(t, suggestion.SeverityMajor, s.Severity)
}

func TestExpectedCount_CountsPredicateAndAdjust(t *testing.T) {
	gcd := EvaluatedAction{Action: data.Action{ID: 1, OnGCD: true}}
	ogcd := EvaluatedAction{Action: data.Action{ID: 2}}

	ev := NewExpectedCount(ExpectedCountOptions[EvaluatedAction]{
		Expected: 2,
		Counts:   CountOnGCD,
		Adjust: func(w window.Window[[]EvaluatedAction]) int64 {
			if w.Start == 0 {
				return -1
			}
			return 0
		},
		Accessor: "gcds",
		Header:   "GCDs",
	})

	windows := []window.Window[[]EvaluatedAction]{
		{Start: 0, End: 10, Data: []EvaluatedAction{gcd, ogcd, ogcd}},
		{Start: 20, End: 30, Data: []EvaluatedAction{gcd, ogcd}},
	}

	out := ev.Output(windows)
	table := out[0].(Table)
	assert.Equal(t, "gcds", table.Header.Accessor)
	assert.Equal(t, "GCDs", table.Header.Title)

	assert.Equal(t, int64(1), table.Rows[0].Actual)
	assert.Equal(t, int64(1), *table.Rows[0].Expected)
	assert.Equal(t, OutcomePositive, table.Rows[0].Outcome())

	assert.Equal(t, int64(1), table.Rows[1].Actual)
	assert.Equal(t, int64(2), *table.Rows[1].Expected)
	assert.Equal(t, OutcomeNegative, table.Rows[1].Outcome())

	assert.True(t, CountOffGCD(ogcd))
}

func TestExpectedCount_WhyFollowsAdjustedExpectation(t *testing.T) {
	tiers := suggestion.Tiers{1: suggestion.SeverityMinor}
	windows := []window.Window[[]EvaluatedAction]{actionWindow(0, 5, 1), actionWindow(6, 9, 1)}

	fixed := NewExpectedCount(ExpectedCountOptions[EvaluatedAction]{
		Expected:             2,
		SuggestionWindowName: "Kerachole",
		SeverityTiers:        tiers,
	})
	s := fixed.Suggest(windows)
	require.NotNil(t, s)
	assert.Equal(t, "2 Kerachole windows contained fewer than the expected 2 use(s).", s.Why)

	adjusted := NewExpectedCount(ExpectedCountOptions[EvaluatedAction]{
		Expected: 1,
		Adjust: func(w window.Window[[]EvaluatedAction]) int64 {
			if w.Start == 6 {
				return 1
			}
			return 0
		},
		SuggestionWindowName: "Kerachole",
		SeverityTiers:        tiers,
	})
	s = adjusted.Suggest(windows)
	require.NotNil(t, s)
	assert.Equal(t, float64(1), s.Value)
	assert.Equal(t, "1 Kerachole window contained fewer uses than expected for that window.", s.Why)
	assert.NotContains(t, s.Why, "expected 1")
}

func TestExpectedCount_Idempotent(t *testing.T) {
	ev := NewExpectedCount(ExpectedCountOptions[EvaluatedAction]{
		Expected:      1,
		SeverityTiers: suggestion.Tiers{1: suggestion.SeverityMinor},
	})
	windows := []window.Window[[]EvaluatedAction]{actionWindow(0, 5, 0), actionWindow(6, 9, 3)}

	assert.Equal(t, ev.Suggest(windows), ev.Suggest(windows))

	first, err := json.Marshal(tableRows(t, ev.Output(windows)))
	require.NoError(t, err)
	second, err := json.Marshal(tableRows(t, ev.Output(windows)))
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))

	assert.Len(t, windows[1].Data, 3, "windows must not be mutated")
}

func damageEvent(amounts ...int64) event.Event {
	ev := event.Event{Type: event.KindDamage}
	for _, a := range amounts {
		ev.Targets = append(ev.Targets, event.DamageTarget{Target: "1", Amount: a})
	}
	return ev
}

func TestDamageTaken_SumsAcrossTargets(t *testing.T) {
	w := window.Window[[]event.Event]{
		Start: 0,
		End:   10,
		Data:  []event.Event{damageEvent(100), damageEvent(50, 25)},
	}
	assert.Equal(t, int64(175), Total(w))

	out := NewDamageTaken(DamageTakenOptions{}).Output([]window.Window[[]event.Event]{w})
	require.Len(t, out, 1)
	notes, ok := out[0].(Notes)
	require.True(t, ok)
	assert.Equal(t, DefaultDamageTakenAccessor, notes.Header.Accessor)
	assert.Equal(t, []string{"175"}, notes.Rows)
}

func TestDamageTaken_EmptyWindowIsZero(t *testing.T) {
	assert.Equal(t, int64(0), Total(window.Window[[]event.Event]{}))
}

func TestDamageTaken_GroupsThousands(t *testing.T) {
	w := window.Window[[]event.Event]{Data: []event.Event{damageEvent(1_000_000, 234_567)}}

	out := NewDamageTaken(DamageTakenOptions{Language: language.English}).Output([]window.Window[[]event.Event]{w})
	assert.Equal(t, []string{"1,234,567"}, out[0].(Notes).Rows)
}

func TestDamageTaken_NeverSuggests(t *testing.T) {
	w := window.Window[[]event.Event]{Data: []event.Event{damageEvent(999999)}}
	assert.Nil(t, NewDamageTaken(DamageTakenOptions{}).Suggest([]window.Window[[]event.Event]{w}))
}

func TestTargetData_Outcome(t *testing.T) {
	one := int64(1)

	assert.Equal(t, OutcomeNeutral, TargetData{Actual: 5}.Outcome())
	assert.Equal(t, OutcomeNegative, TargetData{Actual: 0, Expected: &one}.Outcome())

	flipped := TargetData{
		Actual:   0,
		Expected: &one,
		Comparator: func(actual int64, expected *int64) Outcome {
			return OutcomePositive
		},
	}
	assert.Equal(t, OutcomePositive, flipped.Outcome())
}

func TestTargetData_MarshalJSON(t *testing.T) {
	one := int64(1)
	raw, err := json.Marshal(TargetData{Actual: 2, Expected: &one})
	require.NoError(t, err)
	assert.JSONEq(t, `{"actual":2,"expected":1,"outcome":"positive"}`, string(raw))
}

func TestHeaders_Value(t *testing.T) {
	entry := Entry{
		TargetsData: map[string]TargetData{"a": {Actual: 3}},
		Notes:       map[string]string{"n": "note"},
	}

	d, ok := TableHeader{Accessor: "a"}.Value(entry)
	assert.True(t, ok)
	assert.Equal(t, int64(3), d.Actual)

	_, ok = TableHeader{Accessor: "missing"}.Value(entry)
	assert.False(t, ok)

	resolved, ok := TableHeader{Accessor: "a", Resolve: func(e Entry) TargetData {
		return TargetData{Actual: 42}
	}}.Value(entry)
	assert.True(t, ok)
	assert.Equal(t, int64(42), resolved.Actual)

	n, ok := NotesHeader{Accessor: "n"}.Value(entry)
	assert.True(t, ok)
	assert.Equal(t, "note", n)

	n, _ = NotesHeader{Resolve: func(e Entry) string { return "computed" }}.Value(entry)
	assert.Equal(t, "computed", n)
}
