// Package enrollment picks the class a learner should join when they enrol
// in a course without choosing a class themselves.
package enrollment

// LowOccupancyThreshold is the occupancy below which a bounded class is
// preferred over every other class.
const LowOccupancyThreshold = 0.10

// Candidate is a class a learner could be assigned to.
// A nil Capacity means the class has no seat limit.
type Candidate struct {
	ID            int64
	Capacity      *int
	EnrolledCount int
}

// Limited reports whether the candidate has a positive seat limit.
func (c Candidate) Limited() bool {
	return c.Capacity != nil && *c.Capacity > 0
}

// Unlimited reports whether the candidate has no seat limit at all.
func (c Candidate) Unlimited() bool {
	return c.Capacity == nil
}

// Occupancy is EnrolledCount / Capacity, or 0 when the capacity is not positive.
func (c Candidate) Occupancy() float64 {
	if !c.Limited() {
		return 0
	}
	return float64(c.EnrolledCount) / float64(*c.Capacity)
}

// FreeSeats is Capacity - EnrolledCount; 0 for candidates without a positive capacity.
func (c Candidate) FreeSeats() int {
	if !c.Limited() {
		return 0
	}
	return *c.Capacity - c.EnrolledCount
}

// AutoAssign selects the candidate a new enrollment should go to.
//
// Bounded classes come first: the emptiest one under LowOccupancyThreshold,
// otherwise the one with the most free seats. Unlimited classes are used
// only when no bounded class exists, picking the least crowded. Ties keep
// input order. Candidates with a non-nil capacity <= 0 are never chosen.
func AutoAssign(candidates []Candidate) (int64, bool) {
	var limited, unlimited []Candidate
	for _, c := range candidates {
		switch {
		case c.Limited():
			limited = append(limited, c)
		case c.Unlimited():
			unlimited = append(unlimited, c)
		}
	}

	if len(limited) > 0 {
		if c, ok := leastOccupied(limited); ok {
			return c.ID, true
		}
		return mostFreeSeats(limited).ID, true
	}

	if len(unlimited) > 0 {
		return leastEnrolled(unlimited).ID, true
	}

	return 0, false
}

func leastOccupied(cs []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range cs {
		occ := c.Occupancy()
		if occ >= LowOccupancyThreshold {
			continue
		}
		if !found || occ < best.Occupancy() {
			best = c
			found = true
		}
	}
	return best, found
}

func mostFreeSeats(cs []Candidate) Candidate {
	best := cs[0]
	for _, c := range cs[1:] {
		if c.FreeSeats() > best.FreeSeats() {
			best = c
		}
	}
	return best
}

func leastEnrolled(cs []Candidate) Candidate {
	best := cs[0]
	for _, c := range cs[1:] {
		if c.EnrolledCount < best.EnrolledCount {
			best = c
		}
	}
	return best
}
