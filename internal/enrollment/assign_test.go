package enrollment

import "testing"

func capacity(n int) *int { return &n }

func TestAutoAssign(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		wantID     int64
		wantOK     bool
	}{
		{
			name:   "empty",
			wantOK: false,
		},
		{
			name: "only one under ten percent",
			candidates: []Candidate{
				{ID: 1, Capacity: capacity(100), EnrolledCount: 50},
				{ID: 2, Capacity: capacity(100), EnrolledCount: 5},
			},
			wantID: 2, wantOK: true,
		},
		{
			name: "emptiest under ten percent",
			candidates: []Candidate{
				{ID: 1, Capacity: capacity(100), EnrolledCount: 8},
				{ID: 2, Capacity: capacity(20), EnrolledCount: 0},
				{ID: 3, Capacity: capacity(100), EnrolledCount: 9},
			},
			wantID: 2, wantOK: true,
		},
		{
			name: "under ten percent tie keeps first",
			candidates: []Candidate{
				{ID: 7, Capacity: capacity(50), EnrolledCount: 0},
				{ID: 8, Capacity: capacity(10), EnrolledCount: 0},
			},
			wantID: 7, wantOK: true,
		},
		{
			name: "most free seats fallback",
			candidates: []Candidate{
				{ID: 1, Capacity: capacity(10), EnrolledCount: 8},
				{ID: 2, Capacity: capacity(50), EnrolledCount: 40},
			},
			wantID: 2, wantOK: true,
		},
		{
			name: "free seats tie keeps first",
			candidates: []Candidate{
				{ID: 3, Capacity: capacity(10), EnrolledCount: 5},
				{ID: 4, Capacity: capacity(20), EnrolledCount: 15},
			},
			wantID: 3, wantOK: true,
		},
		{
			name: "exactly ten percent is not low",
			candidates: []Candidate{
				{ID: 1, Capacity: capacity(10), EnrolledCount: 1},
				{ID: 2, Capacity: capacity(100), EnrolledCount: 20},
			},
			wantID: 2, wantOK: true,
		},
		{
			name: "bounded beats unlimited",
			candidates: []Candidate{
				{ID: 1, Capacity: nil, EnrolledCount: 0},
				{ID: 2, Capacity: capacity(10), EnrolledCount: 9},
			},
			wantID: 2, wantOK: true,
		},
		{
			name: "unlimited least enrolled",
			candidates: []Candidate{
				{ID: 1, EnrolledCount: 12},
				{ID: 2, EnrolledCount: 3},
				{ID: 3, EnrolledCount: 3},
			},
			wantID: 2, wantOK: true,
		},
		{
			name: "zero capacity is skipped",
			candidates: []Candidate{
				{ID: 1, Capacity: capacity(0), EnrolledCount: 0},
				{ID: 2, EnrolledCount: 30},
			},
			wantID: 2, wantOK: true,
		},
		{
			name: "only degenerate capacities",
			candidates: []Candidate{
				{ID: 1, Capacity: capacity(0)},
				{ID: 2, Capacity: capacity(-5)},
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := AutoAssign(tt.candidates)
			if ok != tt.wantOK {
				t.Fatalf("AutoAssign() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("AutoAssign() = %d, want %d", id, tt.wantID)
			}
		})
	}
}

func TestCandidateOccupancy(t *testing.T) {
	tests := []struct {
		c    Candidate
		want float64
	}{
		{Candidate{Capacity: capacity(4), EnrolledCount: 1}, 0.25},
		{Candidate{Capacity: nil, EnrolledCount: 10}, 0},
		{Candidate{Capacity: capacity(0), EnrolledCount: 3}, 0},
	}

	for _, tt := range tests {
		if got := tt.c.Occupancy(); got != tt.want {
			t.Errorf("Occupancy(%+v) = %v, want %v", tt.c, got, tt.want)
		}
	}
}
