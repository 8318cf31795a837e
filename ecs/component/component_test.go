package component

import (
	"testing"
)

func TestHealthLedger(t *testing.T) {
	cases := []struct {
		name        string
		max         float64
		ops         func(h *Health) float64
		wantCurrent float64
		wantResult  float64
		wantDeaths  int
	}{
		{
			name:        "damage_is_clamped_to_current",
			max:         10,
			ops:         func(h *Health) float64 { return h.TakeDamage(25) },
			wantCurrent: 0,
			wantResult:  10,
			wantDeaths:  1,
		},
		{
			name: "death_is_raised_once",
			max:  10,
			ops: func(h *Health) float64 {
				h.TakeDamage(10)
				h.Kill()
				return h.TakeDamage(5)
			},
			wantCurrent: 0,
			wantResult:  0,
			wantDeaths:  1,
		},
		{
			name: "heal_stops_at_max",
			max:  10,
			ops: func(h *Health) float64 {
				h.TakeDamage(4)
				return h.Heal(100)
			},
			wantCurrent: 10,
			wantResult:  4,
		},
		{
			name: "dead_ledger_does_not_heal",
			max:  10,
			ops: func(h *Health) float64 {
				h.Kill()
				return h.Heal(5)
			},
			wantCurrent: 0,
			wantResult:  0,
			wantDeaths:  1,
		},
		{
			name:        "non_positive_damage_ignored",
			max:         10,
			ops:         func(h *Health) float64 { return h.TakeDamage(-3) },
			wantCurrent: 10,
			wantResult:  0,
		},
		{
			name:        "non_positive_max_falls_back",
			max:         0,
			ops:         func(h *Health) float64 { return h.Max },
			wantCurrent: 1,
			wantResult:  1,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := NewHealth(c.max)
			deaths := 0
			h.Subscribe(HealthObserver{Name: "count", OnDeath: func() { deaths++ }})

			got := c.ops(h)
			if got != c.wantResult {
				t.Fatalf("expected result %v, got %v", c.wantResult, got)
			}
			if h.Current != c.wantCurrent {
				t.Fatalf("expected current %v, got %v", c.wantCurrent, h.Current)
			}
			if deaths != c.wantDeaths {
				t.Fatalf("expected %d deaths, got %d", c.wantDeaths, deaths)
			}
		})
	}
}

func TestHealthObserverOrderAndFaults(t *testing.T) {
	h := NewHealth(20)
	var order []string
	h.Subscribe(HealthObserver{Name: "first", OnDamaged: func(float64) { order = append(order, "first") }})
	h.Subscribe(HealthObserver{Name: "broken", OnDamaged: func(float64) { panic("boom") }})
	var self ObserverHandle
	self = h.Subscribe(HealthObserver{Name: "once", OnDamaged: func(float64) {
		order = append(order, "once")
		h.Unsubscribe(self)
	}})
	h.Subscribe(HealthObserver{Name: "last", OnDamaged: func(float64) { order = append(order, "last") }})

	h.TakeDamage(1)
	h.TakeDamage(1)

	want := []string{"first", "once", "last", "first", "last"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
	if h.Observers() != 3 {
		t.Fatalf("expected 3 observers left, got %d", h.Observers())
	}
}

func TestRestoreToFullIsSilent(t *testing.T) {
	h := NewHealth(8)
	healed := 0
	h.Subscribe(HealthObserver{OnHealed: func(float64) { healed++ }})
	h.Kill()
	h.RestoreToFull()
	if !h.IsAlive() || h.Current != 8 {
		t.Fatalf("expected full health, got %v", h.Current)
	}
	if healed != 0 {
		t.Fatalf("restore should not raise heal events")
	}
	if h.Fraction() != 1 {
		t.Fatalf("expected fraction 1, got %v", h.Fraction())
	}
}

func frames(dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = dt
	}
	return out
}

func TestAwarenessWindow(t *testing.T) {
	cases := []struct {
		name     string
		timeout  float64
		ticks    []float64
		inCombat bool
	}{
		{"expires_after_timeout", 1, []float64{0.5, 0.5}, false},
		{"still_active_before_timeout", 1, []float64{0.5, 0.25}, true},
		{"default_timeout", 0, []float64{4.5}, true},
		{"minimum_timeout", 0.01, []float64{0.0625}, true},
		{"expires_after_sixtieth_frames", 5, frames(1.0/60, 300), false},
		{"active_one_frame_short", 5, frames(1.0/60, 299), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := NewAwareness(c.timeout, 0)
			a.BeginWindow()
			for _, dt := range c.ticks {
				a.Tick(dt)
			}
			if a.InCombat != c.inCombat {
				t.Fatalf("expected InCombat=%v, remaining=%v", c.inCombat, a.Remaining)
			}
		})
	}

	t.Run("refresh_overwrites_remaining", func(t *testing.T) {
		a := NewAwareness(1, 0)
		a.BeginWindow()
		a.Tick(0.75)
		a.BeginWindow()
		a.Tick(0.75)
		if !a.InCombat || a.Remaining != 0.25 {
			t.Fatalf("expected refreshed window, got in=%v remaining=%v", a.InCombat, a.Remaining)
		}
	})

	t.Run("detection_cadence", func(t *testing.T) {
		a := NewAwareness(1, 0.25)
		due := 0
		for i := 0; i < 8; i++ {
			if a.DetectionDue(0.125) {
				due++
			}
		}
		if due != 4 {
			t.Fatalf("expected 4 checks in one second, got %d", due)
		}
	})
}

func TestCooldown(t *testing.T) {
	cases := []struct {
		name      string
		duration  float64
		ticks     []float64
		canAttack bool
		norm      float64
	}{
		{"ready_initially", 0, nil, true, 0},
		{"blocked_while_counting", 1, []float64{0.25}, false, 0.75},
		{"ready_after_duration", 0.5, []float64{0.25, 0.25}, true, 0},
		{"overshoot_clamps_to_zero", 0.5, []float64{2}, true, 0},
		{"negative_dt_ignored", 0.5, []float64{-1}, false, 1},
		{"ready_after_tenth_frames", 0.5, frames(0.1, 5), true, 0},
		{"ready_after_sixtieth_frames", 1, frames(1.0/60, 60), true, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cd := &Cooldown{}
			if c.duration > 0 {
				cd.Begin(c.duration)
			}
			for _, dt := range c.ticks {
				cd.Tick(dt)
			}
			if cd.CanAttack() != c.canAttack {
				t.Fatalf("expected CanAttack=%v, remaining=%v", c.canAttack, cd.Remaining)
			}
			if cd.Normalized() != c.norm {
				t.Fatalf("expected normalized %v, got %v", c.norm, cd.Normalized())
			}
		})
	}

	t.Run("begin_enforces_minimum", func(t *testing.T) {
		cd := &Cooldown{}
		cd.Begin(0)
		if cd.Duration != MinCooldown || cd.CanAttack() {
			t.Fatalf("expected minimum cooldown armed, got %+v", cd)
		}
	})
}

func TestActionsAndStates(t *testing.T) {
	for a := ActionHold; a < ActionCount; a++ {
		if !a.Valid() || a.String() == "invalid" {
			t.Fatalf("action %d should be valid and named", a)
		}
	}
	if ActionCount.Valid() || Action(-1).Valid() {
		t.Fatalf("out of range actions must be invalid")
	}
	for s := StateIdle; s < BehaviorStateCount; s++ {
		got, ok := ParseBehaviorState(s.String())
		if !ok || got != s {
			t.Fatalf("state %v does not round trip", s)
		}
	}
}
