//go:build !integration

package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"humaine-chatbot/internal/domain"
)

func TestParseFeedbackType(t *testing.T) {
	tests := []struct {
		in      string
		want    FeedbackType
		wantErr bool
	}{
		{"positive", FeedbackPositive, false},
		{" Negative ", FeedbackNegative, false},
		{"meh", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFeedbackType(tc.in)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %q, %v; want %q", got, err, tc.want)
			}
		})
	}
}

func TestInteractionRequest_Validate(t *testing.T) {
	ok := InteractionRequest{SessionID: "s1", UserID: "u1", InputText: "hi", InputStartTime: 1000, InputEndTime: 2500}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if d := ok.TypingDuration(); d != 1500 {
		t.Errorf("expected typing duration 1500, got %d", d)
	}
	for name, r := range map[string]InteractionRequest{
		"no session": {UserID: "u1", InputText: "hi"},
		"no user":    {SessionID: "s1", InputText: "hi"},
		"blank text": {SessionID: "s1", UserID: "u1", InputText: "   "},
	} {
		if err := r.Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", name, err)
		}
	}
}

func TestSessionReport_JSONCarriesTrackersAtTopLevel(t *testing.T) {
	raw := []byte(`{"session_id":"s1","user_id":"u1","session_start":1000,"session_end":61000,
		"session_end_type":"inactivity","session_duration":60000,
		"engagement":{"engagement_time":42.5},"typing_speed":{"average":3.1},"ignored":7}`)
	var r SessionReport
	if err := json.Unmarshal(raw, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid report, got %v", err)
	}
	if v, ok := r.MetricValue("engagement", "engagement_time"); !ok || v != 42.5 {
		t.Errorf("expected engagement_time 42.5, got %v %v", v, ok)
	}
	if _, ok := r.Metrics["ignored"]; ok {
		t.Error("scalar fields must not become tracker records")
	}

	// A tracker named like a fixed field cannot overwrite it.
	r.Metrics["session_id"] = map[string]any{"x": 1}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	_ = json.Unmarshal(b, &back)
	if back["session_id"] != "s1" {
		t.Errorf("session_id clobbered: %v", back["session_id"])
	}
	if _, ok := back["typing_speed"].(map[string]any); !ok {
		t.Errorf("expected typing_speed object, got %v", back["typing_speed"])
	}
}

func TestSessionReport_ValidateRejects(t *testing.T) {
	base := SessionReport{SessionID: "s1", UserID: "u1", SessionStart: 10, SessionEnd: 20, SessionEndType: EndUserAction}
	bad := base
	bad.SessionEndType = "crash"
	if err := bad.Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected end type rejection, got %v", err)
	}
	bad = base
	bad.SessionEnd = 5
	if err := bad.Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ordering rejection, got %v", err)
	}
}

func TestDetailLevel_Steps(t *testing.T) {
	if DetailConcise.Up() != DetailMedium || DetailMedium.Up() != DetailDetailed || DetailDetailed.Up() != DetailDetailed {
		t.Error("Up should saturate at detailed")
	}
	if DetailDetailed.Down() != DetailMedium || DetailConcise.Down() != DetailConcise {
		t.Error("Down should saturate at concise")
	}
}

func TestUserProfile_CloneIsDeep(t *testing.T) {
	p := NewUserProfile("u1", time.Now())
	p.SessionHistory = append(p.SessionHistory, SessionEntry{SessionID: "s1"})
	p.CrossSessionInsights = &CrossSessionInsights{}

	cp := p.Clone()
	cp.SessionHistory[0].SessionID = "changed"
	if p.SessionHistory[0].SessionID != "s1" {
		t.Error("clone shares session history")
	}
	if cp.CrossSessionInsights == p.CrossSessionInsights {
		t.Error("clone shares insights")
	}
	if !p.HasSession("s1") || p.HasSession("s2") {
		t.Error("HasSession mismatch")
	}
	var nilProfile *UserProfile
	if nilProfile.Clone() != nil {
		t.Error("nil clone should be nil")
	}
}
