package clearpath

import "testing"

func TestNewVelocityNoNeighborsReturnsPreferred(t *testing.T) {
	self := Self{Pos: Vec2{X: 0, Y: 0}, Vel: Vec2{X: 1, Y: 0}, Radius: 5, MaxSpeed: 2}
	preferred := Vec2{X: 2, Y: 0}

	got := NewVelocity(self, preferred, nil, nil)
	if got != preferred {
		t.Fatalf("expected unchanged preferred velocity with no neighbors, got %+v", got)
	}
}

func TestNewVelocityDeflectsAroundStaticNeighbor(t *testing.T) {
	self := Self{Pos: Vec2{X: 0, Y: 0}, Vel: Vec2{X: 2, Y: 0}, Radius: 5, MaxSpeed: 2}
	preferred := Vec2{X: 2, Y: 0}
	blocker := Neighbor{Pos: Vec2{X: 3, Y: 0}, Radius: 5}

	got := NewVelocity(self, preferred, nil, []Neighbor{blocker})
	if got == preferred {
		t.Fatalf("expected the candidate to deflect away from a directly blocking neighbor")
	}
	if collisionPenalty(self, got, nil, []Neighbor{blocker}) != 0 {
		t.Fatalf("expected the chosen candidate to be collision free, got %+v", got)
	}
}

func TestNewVelocityIgnoresDistantMovingNeighbor(t *testing.T) {
	self := Self{Pos: Vec2{X: 0, Y: 0}, Vel: Vec2{X: 1, Y: 0}, Radius: 2, MaxSpeed: 2}
	preferred := Vec2{X: 2, Y: 0}
	far := Neighbor{Pos: Vec2{X: 0, Y: 500}, Vel: Vec2{X: 0, Y: -1}, Radius: 2}

	got := NewVelocity(self, preferred, []Neighbor{far}, nil)
	if got != preferred {
		t.Fatalf("expected an uninvolved distant neighbor not to perturb the preferred velocity, got %+v", got)
	}
}

func TestTimeToCollisionAlreadyOverlapping(t *testing.T) {
	t0, hit := timeToCollision(Vec2{X: 1, Y: 0}, Vec2{X: 1, Y: 0}, 5, timeHorizon)
	if !hit || t0 != 0 {
		t.Fatalf("expected an immediate collision when circles already overlap, got t=%v hit=%v", t0, hit)
	}
}

func TestTimeToCollisionMissBeyondHorizon(t *testing.T) {
	_, hit := timeToCollision(Vec2{X: 100, Y: 0}, Vec2{X: 1, Y: 0}, 1, timeHorizon)
	if hit {
		t.Fatalf("expected no collision within the horizon for a distant slow approach")
	}
}

func TestBuildCandidatesIncludesPreferredAndZero(t *testing.T) {
	preferred := Vec2{X: 3, Y: 4}
	candidates := buildCandidates(preferred, preferred.length(), 5)

	var hasPreferred, hasZero bool
	for _, c := range candidates {
		if c == preferred {
			hasPreferred = true
		}
		if c == (Vec2{}) {
			hasZero = true
		}
	}
	if !hasPreferred {
		t.Fatalf("expected the preferred velocity to be among the candidates")
	}
	if !hasZero {
		t.Fatalf("expected the zero velocity (full stop) to be among the candidates")
	}
	for _, c := range candidates {
		if c.length() > 5+1e-9 {
			t.Fatalf("candidate %+v exceeds max speed", c)
		}
	}
}
